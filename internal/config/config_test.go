package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"matchreel/internal/config"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENDOTA_PLAYER_ID", "OPENDOTA_API_KEY",
		"YOUTUBE_CLIENT_ID", "YOUTUBE_CLIENT_SECRET", "YOUTUBE_REFRESH_TOKEN",
		"MATCHREEL_WEBHOOK_URL", "MATCHREEL_DRY_RUN", "MATCHREEL_API_TOKEN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("OPENDOTA_PLAYER_ID", "115732760")
	t.Setenv("MATCHREEL_DRY_RUN", "true")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "Videos", "OBS"); cfg.Paths.WatchDir != want {
		t.Fatalf("unexpected watch dir: got %q want %q", cfg.Paths.WatchDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "matchreel"); cfg.Paths.LogDir != want {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, want)
	}
	if cfg.Matching.PlayerID != 115732760 {
		t.Fatalf("expected player id from env, got %d", cfg.Matching.PlayerID)
	}
	if !cfg.Workflow.DryRun {
		t.Fatal("expected dry run from env")
	}
	if cfg.UploadEnabled() {
		t.Fatal("expected uploads disabled in dry run")
	}
	if got := strings.Join(cfg.Watch.Extensions, ","); got != ".mp4,.mkv" {
		t.Fatalf("unexpected default extensions: %q", got)
	}
	before, after := cfg.MatchWindow()
	if before != 3*time.Hour || after != 3*time.Hour {
		t.Fatalf("unexpected match window: %v/%v", before, after)
	}
	if cfg.Workflow.StableSeconds != 20 || cfg.Workflow.StablePollInterval != 2 {
		t.Fatalf("unexpected stability policy: %+v", cfg.Workflow)
	}
	if cfg.OpenDota.RequestTimeout != 30 {
		t.Fatalf("unexpected opendota timeout: %d", cfg.OpenDota.RequestTimeout)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WatchDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearCredentialEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "matchreel.toml")

	type payload struct {
		Paths struct {
			WatchDir string `toml:"watch_dir"`
			LogDir   string `toml:"log_dir"`
		} `toml:"paths"`
		Watch struct {
			Extensions []string `toml:"extensions"`
		} `toml:"watch"`
		Matching struct {
			PlayerID            int64 `toml:"player_id"`
			WindowBeforeSeconds int   `toml:"window_before_seconds"`
		} `toml:"matching"`
		YouTube struct {
			ClientID     string   `toml:"client_id"`
			ClientSecret string   `toml:"client_secret"`
			RefreshToken string   `toml:"refresh_token"`
			Tags         []string `toml:"tags"`
		} `toml:"youtube"`
	}
	custom := payload{}
	custom.Paths.WatchDir = filepath.Join(tempDir, "watch")
	custom.Paths.LogDir = filepath.Join(tempDir, "logs")
	custom.Watch.Extensions = []string{"MKV", ".Mp4", "mkv", " "}
	custom.Matching.PlayerID = 42
	custom.Matching.WindowBeforeSeconds = 600
	custom.YouTube.ClientID = "id"
	custom.YouTube.ClientSecret = "secret"
	custom.YouTube.RefreshToken = "refresh"
	custom.YouTube.Tags = []string{" dota ", ""}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if got := strings.Join(cfg.Watch.Extensions, ","); got != ".mkv,.mp4" {
		t.Fatalf("expected normalized extensions, got %q", got)
	}
	if cfg.Matching.WindowBeforeSeconds != 600 {
		t.Fatalf("expected window before 600, got %d", cfg.Matching.WindowBeforeSeconds)
	}
	if cfg.Matching.WindowAfterSeconds != config.Default().Matching.WindowAfterSeconds {
		t.Fatalf("expected default window after, got %d", cfg.Matching.WindowAfterSeconds)
	}
	if len(cfg.YouTube.Tags) != 1 || cfg.YouTube.Tags[0] != "dota" {
		t.Fatalf("expected trimmed tags, got %v", cfg.YouTube.Tags)
	}
	if !cfg.UploadEnabled() {
		t.Fatal("expected uploads enabled")
	}
}

func TestValidateRequiresYouTubeCredentialsUnlessDryRun(t *testing.T) {
	cfg := config.Default()
	cfg.Matching.PlayerID = 1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "youtube.client_id") {
		t.Fatalf("expected missing credential error, got %v", err)
	}
	cfg.Workflow.DryRun = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected dry run config to validate, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Matching.PlayerID = 1
		cfg.Workflow.DryRun = true
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing player", func(c *config.Config) { c.Matching.PlayerID = 0 }, "matching.player_id"},
		{"bad zone", func(c *config.Config) { c.Recording.Timezone = "Mars/Olympus" }, "recording.timezone"},
		{"bad mode", func(c *config.Config) { c.Watch.Mode = "inotify" }, "watch.mode"},
		{"bad privacy", func(c *config.Config) { c.YouTube.PrivacyStatus = "secret" }, "privacy_status"},
		{"bad webhook", func(c *config.Config) { c.Notifications.WebhookURL = "ftp://hooks.example" }, "webhook_url"},
		{"negative window", func(c *config.Config) { c.Matching.WindowAfterSeconds = -1 }, "window_after"},
		{"poll exceeds stable", func(c *config.Config) { c.Workflow.StablePollInterval = 30 }, "stable_poll_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalizeExtensions(t *testing.T) {
	got := config.NormalizeExtensions([]string{"MP4", ".mkv", "mp4", "", " .FLV "})
	if strings.Join(got, ",") != ".mp4,.mkv,.flv" {
		t.Fatalf("unexpected extensions: %v", got)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("OPENDOTA_PLAYER_ID", "7")
	t.Setenv("MATCHREEL_DRY_RUN", "1")
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.YouTube.CategoryID != "20" {
		t.Fatalf("expected sample category 20, got %q", cfg.YouTube.CategoryID)
	}
}
