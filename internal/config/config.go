package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WatchDir string `toml:"watch_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Watch contains configuration for the recording folder watcher.
type Watch struct {
	Extensions      []string `toml:"extensions"`
	ProcessExisting bool     `toml:"process_existing"`
	Mode            string   `toml:"mode"`
	PollInterval    int      `toml:"poll_interval"`
	QueueSize       int      `toml:"queue_size"`
}

// Recording describes how recording file names are interpreted.
type Recording struct {
	Timezone string `toml:"timezone"`
}

// Matching contains the match resolution window and player identity.
type Matching struct {
	PlayerID            int64 `toml:"player_id"`
	WindowBeforeSeconds int   `toml:"window_before_seconds"`
	WindowAfterSeconds  int   `toml:"window_after_seconds"`
	HistoryLimit        int   `toml:"history_limit"`
}

// OpenDota contains configuration for the OpenDota statistics API.
type OpenDota struct {
	BaseURL           string `toml:"base_url"`
	APIKey            string `toml:"api_key"`
	RequestTimeout    int    `toml:"request_timeout"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// YouTube contains upload credentials and video policy.
type YouTube struct {
	ClientID         string   `toml:"client_id"`
	ClientSecret     string   `toml:"client_secret"`
	RefreshToken     string   `toml:"refresh_token"`
	PrivacyStatus    string   `toml:"privacy_status"`
	CategoryID       string   `toml:"category_id"`
	Tags             []string `toml:"tags"`
	ChunkSizeMiB     int      `toml:"chunk_size_mib"`
	MaxAttempts      int      `toml:"max_attempts"`
	RetryBaseSeconds int      `toml:"retry_base_seconds"`
	UploadTimeout    int      `toml:"upload_timeout"`
}

// Notifications contains configuration for the completion webhook.
type Notifications struct {
	WebhookURL     string `toml:"webhook_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Workflow contains pipeline policy and timing.
type Workflow struct {
	DryRun              bool `toml:"dry_run"`
	StableSeconds       int  `toml:"stable_seconds"`
	StablePollInterval  int  `toml:"stable_poll_interval"`
	MissingGraceSeconds int  `toml:"missing_grace_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for matchreel.
//
// Configuration sections by subsystem:
//   - Paths: watched folder, log/state directory, status API bind
//   - Watch: extension filter, backlog mode, watch mechanism
//   - Recording: time zone used to read file-name timestamps
//   - Matching: OpenDota player id and the match time window
//   - OpenDota: API base URL, key, timeout, and rate limit
//   - YouTube: OAuth credentials and upload policy
//   - Notifications: completion webhook
//   - Workflow: dry-run and file stability policy
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Watch         Watch         `toml:"watch"`
	Recording     Recording     `toml:"recording"`
	Matching      Matching      `toml:"matching"`
	OpenDota      OpenDota      `toml:"opendota"`
	YouTube       YouTube       `toml:"youtube"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("matchreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WatchDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Location loads the configured recording time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Recording.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.Recording.Timezone, err)
	}
	return loc, nil
}

// MatchWindow returns the slack applied before a match starts and after it ends.
func (c *Config) MatchWindow() (before, after time.Duration) {
	return time.Duration(c.Matching.WindowBeforeSeconds) * time.Second,
		time.Duration(c.Matching.WindowAfterSeconds) * time.Second
}

// HistoryDBPath returns the location of the finished-run history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "matchreeld.lock")
}

// LogFilePath returns the daemon log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "matchreel.log")
}

// UploadEnabled reports whether recordings are handed to YouTube.
func (c *Config) UploadEnabled() bool {
	return !c.Workflow.DryRun
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
