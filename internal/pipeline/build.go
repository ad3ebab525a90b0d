package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"matchreel/internal/catalog"
	"matchreel/internal/config"
	"matchreel/internal/matching"
	"matchreel/internal/notifications"
	"matchreel/internal/opendota"
	"matchreel/internal/youtube"
)

// NewFromConfig wires the production collaborators: the OpenDota client,
// resolver, memoized catalogs, the YouTube uploader (unless dry run) and the
// configured notifier. recorder may be nil.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger, recorder Recorder, opts ...Option) (*Pipeline, error) {
	client := opendota.NewFromConfig(cfg)
	deps := Dependencies{
		Resolver: matching.NewResolver(client,
			matching.WithHistoryLimit(cfg.Matching.HistoryLimit),
			matching.WithLogger(logger),
		),
		Matches:  client,
		Catalogs: catalog.NewCache(client),
		Notifier: notifications.NewService(cfg),
		History:  recorder,
	}
	if cfg.UploadEnabled() {
		uploader, err := youtube.NewFromConfig(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("build uploader: %w", err)
		}
		deps.Uploader = uploader
	}
	return New(cfg, deps, append([]Option{WithLogger(logger)}, opts...)...)
}
