package opendota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"matchreel/internal/config"
	"matchreel/internal/metrics"
)

// DefaultBaseURL is the public OpenDota API root.
const DefaultBaseURL = "https://api.opendota.com/api"

// MaxHistoryLimit caps the rows requested from the dated history endpoint.
const MaxHistoryLimit = 200

// Client provides access to the OpenDota API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithAPIKey attaches an OpenDota API key to every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit spaces requests to at most perMinute per minute. Zero or a
// negative value disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// New creates an OpenDota client with a 30 second timeout and no rate limit.
func New(opts ...Option) *Client {
	client := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewFromConfig builds a client from the [opendota] section.
func NewFromConfig(cfg *config.Config) *Client {
	if cfg == nil {
		return New()
	}
	return New(
		WithBaseURL(cfg.OpenDota.BaseURL),
		WithAPIKey(cfg.OpenDota.APIKey),
		WithTimeout(time.Duration(cfg.OpenDota.RequestTimeout)*time.Second),
		WithRateLimit(cfg.OpenDota.RequestsPerMinute),
	)
}

// RecentMatches returns the provider's default recent window for a player.
func (c *Client) RecentMatches(ctx context.Context, playerID int64) ([]MatchSummary, error) {
	var rows []MatchSummary
	path := "/players/" + strconv.FormatInt(playerID, 10) + "/recentMatches"
	if err := c.get(ctx, "recent_matches", path, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// PlayerMatches returns up to limit matches played within the last days days.
func (c *Client) PlayerMatches(ctx context.Context, playerID int64, days, limit int) ([]MatchSummary, error) {
	params := url.Values{}
	if days > 0 {
		params.Set("date", strconv.Itoa(days))
	}
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	params.Set("limit", strconv.Itoa(limit))

	var rows []MatchSummary
	path := "/players/" + strconv.FormatInt(playerID, 10) + "/matches"
	if err := c.get(ctx, "player_matches", path, params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Match fetches the full record for matchID.
func (c *Client) Match(ctx context.Context, matchID int64) (*Match, error) {
	var match Match
	if err := c.get(ctx, "match", "/matches/"+strconv.FormatInt(matchID, 10), nil, &match); err != nil {
		return nil, err
	}
	if match.MatchID == 0 {
		return nil, &ProviderError{Endpoint: "match", Err: errors.New("response carried no match_id")}
	}
	return &match, nil
}

// Heroes fetches /constants/heroes keyed by hero id string.
func (c *Client) Heroes(ctx context.Context) (map[string]HeroConstant, error) {
	var heroes map[string]HeroConstant
	if err := c.get(ctx, "heroes", "/constants/heroes", nil, &heroes); err != nil {
		return nil, err
	}
	if heroes == nil {
		return nil, errEmptyPayload("heroes")
	}
	return heroes, nil
}

// Items fetches /constants/items keyed by internal item name.
func (c *Client) Items(ctx context.Context) (map[string]ItemConstant, error) {
	var items map[string]ItemConstant
	if err := c.get(ctx, "items", "/constants/items", nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, errEmptyPayload("items")
	}
	return items, nil
}

// Patches fetches /constants/patch.
func (c *Client) Patches(ctx context.Context) ([]PatchConstant, error) {
	var patches []PatchConstant
	if err := c.get(ctx, "patches", "/constants/patch", nil, &patches); err != nil {
		return nil, err
	}
	if patches == nil {
		return nil, errEmptyPayload("patches")
	}
	return patches, nil
}

// errEmptyPayload reports a 2xx response whose body decoded to JSON null.
func errEmptyPayload(endpoint string) error {
	return &ProviderError{Endpoint: endpoint, Status: http.StatusOK, Err: errors.New("empty payload")}
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) (err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.IncreaseOpenDotaRequests(endpoint, outcome)
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &ProviderError{Endpoint: endpoint, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	target, err := url.Parse(c.baseURL + path)
	if err != nil {
		return &ProviderError{Endpoint: endpoint, Err: fmt.Errorf("parse url: %w", err)}
	}
	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	target.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return &ProviderError{Endpoint: endpoint, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return &ProviderError{Endpoint: endpoint, Err: fmt.Errorf("execute request (latency=%v): %w", latency, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var detail error
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			detail = errors.New(msg)
		}
		return &ProviderError{Endpoint: endpoint, Status: resp.StatusCode, Err: detail}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
