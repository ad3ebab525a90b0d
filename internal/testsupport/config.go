package testsupport

import (
	"path/filepath"
	"testing"

	"matchreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The result runs in dry-run mode with fast stability timings unless options
// say otherwise.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WatchDir = filepath.Join(base, "watch")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Matching.PlayerID = 115732760
	cfgVal.Recording.Timezone = "UTC"
	cfgVal.Workflow.DryRun = true
	cfgVal.Workflow.StableSeconds = 0
	cfgVal.Workflow.StablePollInterval = 0
	cfgVal.Watch.PollInterval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return builder.cfg
}

// WithUploads disables dry-run mode and fills placeholder YouTube credentials.
func WithUploads() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.DryRun = false
		b.cfg.YouTube.ClientID = "client-id"
		b.cfg.YouTube.ClientSecret = "client-secret"
		b.cfg.YouTube.RefreshToken = "refresh-token"
	}
}

// WithOpenDota points the OpenDota client at a test server.
func WithOpenDota(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenDota.BaseURL = baseURL
		b.cfg.OpenDota.RequestsPerMinute = 0
	}
}

// WithWebhook sets the completion webhook URL.
func WithWebhook(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.WebhookURL = url
	}
}

// WithTimezone overrides the recording time zone.
func WithTimezone(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Recording.Timezone = name
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
