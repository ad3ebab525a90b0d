package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"matchreel/internal/config"
	"matchreel/internal/services"
)

const userAgent = "matchreel/0.1.0"

// Status is the terminal outcome reported for a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the webhook payload. Absent optionals are sent as JSON null.
type Result struct {
	Status          Status    `json:"status"`
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	VideoPath       string    `json:"videoPath"`
	DescriptionPath *string   `json:"descriptionPath"`
	MatchID         *int64    `json:"matchId"`
	YouTubeVideoID  *string   `json:"youtubeVideoId"`
	Error           *string   `json:"error"`
	Test            bool      `json:"test,omitempty"`
}

// MarshalJSON renders timestamps as RFC 3339 UTC.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		alias
		StartedAt  string `json:"startedAt"`
		FinishedAt string `json:"finishedAt"`
	}{
		alias:      alias(r),
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: r.FinishedAt.UTC().Format(time.RFC3339),
	})
}

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyRunFinished(ctx context.Context, result Result) error
	TestNotification(ctx context.Context) error
}

// NewService builds a webhook notifier when a URL is configured. When no
// webhook URL is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	endpoint := strings.TrimSpace(cfg.Notifications.WebhookURL)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &webhookService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type webhookService struct {
	endpoint string
	client   *http.Client
}

func (w *webhookService) NotifyRunFinished(ctx context.Context, result Result) error {
	return w.send(ctx, result)
}

func (w *webhookService) TestNotification(ctx context.Context) error {
	now := time.Now().UTC()
	return w.send(ctx, Result{
		Status:     StatusSuccess,
		StartedAt:  now,
		FinishedAt: now,
		VideoPath:  "",
		Test:       true,
	})
}

func (w *webhookService) send(ctx context.Context, result Result) error {
	if w == nil || w.client == nil {
		return nil
	}
	body, err := json.Marshal(result)
	if err != nil {
		return services.Wrap(services.ErrNotification, "notifying", "encode payload", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrNotification, "notifying", "build request", "", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrNotification, "notifying", "post webhook", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrNotification, "notifying", "post webhook",
			fmt.Sprintf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunFinished(context.Context, Result) error { return nil }
func (noopService) TestNotification(context.Context) error          { return nil }
