package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"matchreel/internal/config"
	"matchreel/internal/logging"
	"matchreel/internal/metrics"
	"matchreel/internal/textutil"
)

const defaultChunkSize = 8 * 1024 * 1024

var errNoVideoID = errors.New("upload response carried no video id")

// Video is one upload request.
type Video struct {
	Path        string
	Title       string
	Description string
	Tags        []string
}

// InsertFunc performs a single videos.insert call, streaming media.
type InsertFunc func(ctx context.Context, video *yt.Video, media io.Reader) (*yt.Video, error)

// Uploader sends recordings to YouTube.
type Uploader struct {
	insert      InsertFunc
	privacy     string
	categoryID  string
	maxAttempts int
	retryBase   time.Duration
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithInsertFunc replaces the API call, mainly for tests.
func WithInsertFunc(fn InsertFunc) Option {
	return func(u *Uploader) {
		if fn != nil {
			u.insert = fn
		}
	}
}

// WithRetry sets the attempt budget and the first backoff delay.
func WithRetry(maxAttempts int, base time.Duration) Option {
	return func(u *Uploader) {
		if maxAttempts > 0 {
			u.maxAttempts = maxAttempts
		}
		if base > 0 {
			u.retryBase = base
		}
	}
}

// WithTimeout bounds the whole upload, retries included.
func WithTimeout(d time.Duration) Option {
	return func(u *Uploader) {
		if d > 0 {
			u.timeout = d
		}
	}
}

// WithPolicy sets the privacy status and category applied to every upload.
func WithPolicy(privacy, categoryID string) Option {
	return func(u *Uploader) {
		if p := strings.TrimSpace(privacy); p != "" {
			u.privacy = p
		}
		u.categoryID = strings.TrimSpace(categoryID)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// New builds an Uploader. Callers must supply an InsertFunc, either through
// WithInsertFunc or by using NewFromConfig.
func New(opts ...Option) *Uploader {
	u := &Uploader{
		privacy:     "unlisted",
		maxAttempts: 5,
		retryBase:   2 * time.Second,
		timeout:     2 * time.Hour,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.insert == nil {
		u.insert = func(context.Context, *yt.Video, io.Reader) (*yt.Video, error) {
			return nil, errors.New("youtube uploader not configured")
		}
	}
	return u
}

// NewFromConfig builds an Uploader backed by the YouTube Data API using the
// refresh token in cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Uploader, error) {
	if cfg == nil {
		return nil, errors.New("youtube: config required")
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.YouTube.ClientID,
		ClientSecret: cfg.YouTube.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{yt.YoutubeUploadScope},
	}
	chunkSize := cfg.YouTube.ChunkSizeMiB * 1024 * 1024
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	insert, err := apiInsert(ctx, oauthCfg, cfg.YouTube.RefreshToken, chunkSize)
	if err != nil {
		return nil, err
	}

	return New(
		WithInsertFunc(insert),
		WithPolicy(cfg.YouTube.PrivacyStatus, cfg.YouTube.CategoryID),
		WithRetry(cfg.YouTube.MaxAttempts, time.Duration(cfg.YouTube.RetryBaseSeconds)*time.Second),
		WithTimeout(time.Duration(cfg.YouTube.UploadTimeout)*time.Second),
		WithLogger(logger),
	), nil
}

// apiInsert builds the service behind NewFromConfig. The token source keeps
// refreshing after ctx is cancelled.
func apiInsert(ctx context.Context, oauthCfg *oauth2.Config, refreshToken string, chunkSize int, opts ...option.ClientOption) (InsertFunc, error) {
	ctx = context.WithoutCancel(ctx)
	tokens := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	opts = append([]option.ClientOption{option.WithTokenSource(tokens)}, opts...)
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return serviceInsert(svc, chunkSize), nil
}

func serviceInsert(svc *yt.Service, chunkSize int) InsertFunc {
	return func(ctx context.Context, video *yt.Video, media io.Reader) (*yt.Video, error) {
		return svc.Videos.
			Insert([]string{"snippet", "status"}, video).
			Media(media, googleapi.ChunkSize(chunkSize)).
			Context(ctx).
			Do()
	}
}

// Upload streams v.Path and returns the new video id.
func (u *Uploader) Upload(ctx context.Context, v Video) (string, error) {
	logger := logging.WithContext(ctx, u.logger)

	file, err := os.Open(v.Path)
	if err != nil {
		return "", &UploadError{Path: v.Path, Err: fmt.Errorf("open recording: %w", err)}
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	body := u.videoBody(v)
	attempts := 0
	var videoID string

	backoff := retry.WithMaxRetries(uint64(u.maxAttempts-1), retry.NewExponential(u.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind recording: %w", err)
		}
		logger.Info("youtube upload attempt",
			logging.Int("attempt", attempts),
			logging.Int("max_attempts", u.maxAttempts),
			logging.String(logging.FieldEventType, "upload_attempt"),
		)
		resp, err := u.insert(ctx, body, file)
		if err != nil {
			metrics.IncreaseUploadAttempts("error")
			if isRetryable(err) && ctx.Err() == nil {
				logging.WarnWithContext(logger, "youtube upload attempt failed; retrying", "upload_retry",
					logging.Int("attempt", attempts),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "transient network or quota error"),
					logging.String(logging.FieldImpact, "upload delayed by backoff"),
				)
				return retry.RetryableError(err)
			}
			return err
		}
		if resp == nil || strings.TrimSpace(resp.Id) == "" {
			metrics.IncreaseUploadAttempts("error")
			return errNoVideoID
		}
		metrics.IncreaseUploadAttempts("ok")
		videoID = resp.Id
		return nil
	})
	if err != nil {
		return "", &UploadError{Path: v.Path, Attempts: attempts, Err: err}
	}
	return videoID, nil
}

func (u *Uploader) videoBody(v Video) *yt.Video {
	return &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       textutil.Title(v.Title),
			Description: textutil.Description(v.Description),
			Tags:        textutil.Tags(v.Tags),
			CategoryId:  u.categoryID,
		},
		Status: &yt.VideoStatus{PrivacyStatus: u.privacy},
	}
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
