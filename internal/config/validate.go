package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var validPrivacyStatuses = map[string]struct{}{
	"private":  {},
	"unlisted": {},
	"public":   {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateRecording(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateOpenDota(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWatch() error {
	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		return errors.New("paths.watch_dir must be set")
	}
	switch c.Watch.Mode {
	case "fsnotify", "poll":
	default:
		return fmt.Errorf("watch.mode must be \"fsnotify\" or \"poll\", got %q", c.Watch.Mode)
	}
	if len(c.Watch.Extensions) == 0 {
		return errors.New("watch.extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateRecording() error {
	if _, err := time.LoadLocation(c.Recording.Timezone); err != nil {
		return fmt.Errorf("recording.timezone %q is not a valid IANA time zone: %w", c.Recording.Timezone, err)
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.PlayerID <= 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("matching.player_id is required. Set OPENDOTA_PLAYER_ID env var or edit %s (create with 'matchreel config init')", defaultPath)
	}
	if c.Matching.WindowBeforeSeconds < 0 {
		return errors.New("matching.window_before_seconds must not be negative")
	}
	if c.Matching.WindowAfterSeconds < 0 {
		return errors.New("matching.window_after_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateOpenDota() error {
	if _, err := url.ParseRequestURI(c.OpenDota.BaseURL); err != nil {
		return fmt.Errorf("opendota.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if _, ok := validPrivacyStatuses[c.YouTube.PrivacyStatus]; !ok {
		return fmt.Errorf("youtube.privacy_status must be private, unlisted, or public, got %q", c.YouTube.PrivacyStatus)
	}
	if c.Workflow.DryRun {
		return nil
	}
	missing := make([]string, 0, 3)
	if c.YouTube.ClientID == "" {
		missing = append(missing, "youtube.client_id (YOUTUBE_CLIENT_ID)")
	}
	if c.YouTube.ClientSecret == "" {
		missing = append(missing, "youtube.client_secret (YOUTUBE_CLIENT_SECRET)")
	}
	if c.YouTube.RefreshToken == "" {
		missing = append(missing, "youtube.refresh_token (YOUTUBE_REFRESH_TOKEN)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s; set them or enable workflow.dry_run", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.WebhookURL == "" {
		return nil
	}
	parsed, err := url.ParseRequestURI(c.Notifications.WebhookURL)
	if err != nil {
		return fmt.Errorf("notifications.webhook_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("notifications.webhook_url must use http or https, got %q", parsed.Scheme)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.StablePollInterval > c.Workflow.StableSeconds {
		return errors.New("workflow.stable_poll_interval must not exceed workflow.stable_seconds")
	}
	return nil
}
