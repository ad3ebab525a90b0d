package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"matchreel/internal/config"
	"matchreel/internal/fileutil"
	"matchreel/internal/logging"
	"matchreel/internal/matching"
	"matchreel/internal/notifications"
	"matchreel/internal/services"
)

// Dependencies bundles the collaborators a Pipeline drives.
type Dependencies struct {
	Resolver Resolver
	Matches  MatchFetcher
	Catalogs CatalogLoader
	// Uploader may be nil when the pipeline runs in dry-run mode.
	Uploader Uploader
	Notifier notifications.Service
	// History is optional.
	History Recorder
}

// Pipeline runs recordings through the stage sequence.
type Pipeline struct {
	deps      Dependencies
	playerID  int64
	timezone  string
	window    matching.Window
	dryRun    bool
	extraTags []string
	stability fileutil.StabilityPolicy

	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the wall clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithStability overrides the file stability policy from config.
func WithStability(policy fileutil.StabilityPolicy) Option {
	return func(p *Pipeline) {
		p.stability = policy
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New builds a Pipeline from config policy and explicit dependencies.
func New(cfg *config.Config, deps Dependencies, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config required")
	}
	if deps.Resolver == nil || deps.Matches == nil || deps.Catalogs == nil {
		return nil, errors.New("pipeline: resolver, match fetcher and catalogs are required")
	}
	if deps.Uploader == nil && !cfg.Workflow.DryRun {
		return nil, errors.New("pipeline: uploader required unless dry run")
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}

	before, after := cfg.MatchWindow()
	p := &Pipeline{
		deps:      deps,
		playerID:  cfg.Matching.PlayerID,
		timezone:  cfg.Recording.Timezone,
		window:    matching.Window{Before: before, After: after},
		dryRun:    cfg.Workflow.DryRun,
		extraTags: append([]string(nil), cfg.YouTube.Tags...),
		stability: fileutil.StabilityPolicy{
			StableFor:    time.Duration(cfg.Workflow.StableSeconds) * time.Second,
			Interval:     time.Duration(cfg.Workflow.StablePollInterval) * time.Second,
			MissingGrace: time.Duration(cfg.Workflow.MissingGraceSeconds) * time.Second,
		},
		logger: logging.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	return p, nil
}

// DryRun reports whether uploads are skipped.
func (p *Pipeline) DryRun() bool {
	return p.dryRun
}

// Process runs path through every stage and returns the finished run. The
// returned run is always terminal.
func (p *Pipeline) Process(ctx context.Context, path string) *Run {
	run := &Run{
		ID:        p.newID(),
		Path:      path,
		StartedAt: p.now(),
		DryRun:    p.dryRun,
		State:     StateStabilizing,
	}
	ctx = services.WithRecording(services.WithRunID(ctx, run.ID), path)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("recording queued for processing",
		logging.String(logging.FieldEventType, "run_started"),
		logging.Bool("dry_run", p.dryRun),
	)

	if err := p.stabilize(ctx, run); err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			run.State = StateAborted
			run.Err = err
			run.FinishedAt = p.now()
			logger.Info("run aborted before recording stabilized",
				logging.String(logging.FieldEventType, "run_aborted"),
			)
			return run
		}
		p.finish(context.WithoutCancel(ctx), logger, run, string(StateStabilizing), err)
		return run
	}

	// From here on the run always reaches a terminal state.
	runCtx := context.WithoutCancel(ctx)
	failedStage, err := p.runStages(runCtx, logger, run)
	p.finish(runCtx, logger, run, failedStage, err)
	return run
}

func (p *Pipeline) stabilize(ctx context.Context, run *Run) error {
	started := p.now()
	size, err := fileutil.WaitForStable(services.WithStage(ctx, string(StateStabilizing)), run.Path, p.stability)
	if err != nil {
		if errors.Is(err, fileutil.ErrFileMissing) {
			return services.Wrap(services.ErrValidation, string(StateStabilizing), "wait for stable size", "recording disappeared", err)
		}
		return err
	}
	p.observe(StateStabilizing, started)
	logging.WithContext(ctx, p.logger).Debug("recording stable",
		logging.String(logging.FieldStage, string(StateStabilizing)),
		logging.Int64("size_bytes", size),
	)
	return nil
}
