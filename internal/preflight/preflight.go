package preflight

import (
	"context"

	"matchreel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Watch directory", cfg.Paths.WatchDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckTimezone(cfg.Recording.Timezone),
		CheckPlayerID(cfg.Matching.PlayerID),
		CheckOpenDota(ctx, cfg),
		CheckYouTubeCredentials(cfg),
		CheckWebhook(cfg.Notifications.WebhookURL),
	}
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
