package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWatch()
	c.normalizeRecording()
	if err := c.normalizeMatching(); err != nil {
		return err
	}
	c.normalizeOpenDota()
	c.normalizeYouTube()
	c.normalizeNotifications()
	if err := c.normalizeWorkflow(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		c.Paths.WatchDir = defaultWatchDir
	}
	if c.Paths.WatchDir, err = expandPath(c.Paths.WatchDir); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("MATCHREEL_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeWatch() {
	c.Watch.Extensions = NormalizeExtensions(c.Watch.Extensions)
	if len(c.Watch.Extensions) == 0 {
		c.Watch.Extensions = append([]string(nil), defaultExtensions...)
	}
	c.Watch.Mode = strings.ToLower(strings.TrimSpace(c.Watch.Mode))
	if c.Watch.Mode == "" {
		c.Watch.Mode = defaultWatchMode
	}
	if c.Watch.PollInterval <= 0 {
		c.Watch.PollInterval = defaultWatchPollInterval
	}
	if c.Watch.QueueSize <= 0 {
		c.Watch.QueueSize = defaultWatchQueueSize
	}
}

// NormalizeExtensions lowercases, dot-prefixes, and dedupes a list of file
// extensions, dropping blanks.
func NormalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func (c *Config) normalizeRecording() {
	c.Recording.Timezone = strings.TrimSpace(c.Recording.Timezone)
	if c.Recording.Timezone == "" {
		c.Recording.Timezone = defaultTimezone
	}
}

func (c *Config) normalizeMatching() error {
	if c.Matching.PlayerID == 0 {
		if value, ok := os.LookupEnv("OPENDOTA_PLAYER_ID"); ok && strings.TrimSpace(value) != "" {
			id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return fmt.Errorf("OPENDOTA_PLAYER_ID: %w", err)
			}
			c.Matching.PlayerID = id
		}
	}
	if c.Matching.HistoryLimit <= 0 {
		c.Matching.HistoryLimit = defaultHistoryLimit
	}
	return nil
}

func (c *Config) normalizeOpenDota() {
	c.OpenDota.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenDota.BaseURL), "/")
	if c.OpenDota.BaseURL == "" {
		c.OpenDota.BaseURL = defaultOpenDotaBaseURL
	}
	c.OpenDota.APIKey = strings.TrimSpace(c.OpenDota.APIKey)
	if c.OpenDota.APIKey == "" {
		if value, ok := os.LookupEnv("OPENDOTA_API_KEY"); ok {
			c.OpenDota.APIKey = strings.TrimSpace(value)
		}
	}
	if c.OpenDota.RequestTimeout <= 0 {
		c.OpenDota.RequestTimeout = defaultOpenDotaTimeout
	}
	if c.OpenDota.RequestsPerMinute <= 0 {
		c.OpenDota.RequestsPerMinute = defaultOpenDotaRequestsPerMin
	}
}

func (c *Config) normalizeYouTube() {
	c.YouTube.ClientID = envFallback(c.YouTube.ClientID, "YOUTUBE_CLIENT_ID")
	c.YouTube.ClientSecret = envFallback(c.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET")
	c.YouTube.RefreshToken = envFallback(c.YouTube.RefreshToken, "YOUTUBE_REFRESH_TOKEN")
	c.YouTube.PrivacyStatus = strings.ToLower(strings.TrimSpace(c.YouTube.PrivacyStatus))
	if c.YouTube.PrivacyStatus == "" {
		c.YouTube.PrivacyStatus = defaultPrivacyStatus
	}
	c.YouTube.CategoryID = strings.TrimSpace(c.YouTube.CategoryID)
	tags := make([]string, 0, len(c.YouTube.Tags))
	for _, tag := range c.YouTube.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	c.YouTube.Tags = tags
	if c.YouTube.ChunkSizeMiB <= 0 {
		c.YouTube.ChunkSizeMiB = defaultChunkSizeMiB
	}
	if c.YouTube.MaxAttempts <= 0 {
		c.YouTube.MaxAttempts = defaultUploadMaxAttempts
	}
	if c.YouTube.RetryBaseSeconds <= 0 {
		c.YouTube.RetryBaseSeconds = defaultUploadRetryBase
	}
	if c.YouTube.UploadTimeout <= 0 {
		c.YouTube.UploadTimeout = defaultUploadTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.WebhookURL = envFallback(c.Notifications.WebhookURL, "MATCHREEL_WEBHOOK_URL")
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeWorkflow() error {
	if value, ok := os.LookupEnv("MATCHREEL_DRY_RUN"); ok && strings.TrimSpace(value) != "" {
		dryRun, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("MATCHREEL_DRY_RUN: %w", err)
		}
		c.Workflow.DryRun = dryRun
	}
	if c.Workflow.StableSeconds <= 0 {
		c.Workflow.StableSeconds = defaultStableSeconds
	}
	if c.Workflow.StablePollInterval <= 0 {
		c.Workflow.StablePollInterval = defaultStablePollInterval
	}
	if c.Workflow.MissingGraceSeconds <= 0 {
		c.Workflow.MissingGraceSeconds = defaultMissingGraceSeconds
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envFallback(current, key string) string {
	current = strings.TrimSpace(current)
	if current != "" {
		return current
	}
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", value)
	}
}
