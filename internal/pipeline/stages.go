package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"matchreel/internal/describe"
	"matchreel/internal/fileutil"
	"matchreel/internal/logging"
	"matchreel/internal/metrics"
	"matchreel/internal/recording"
	"matchreel/internal/services"
	"matchreel/internal/youtube"
)

type stage struct {
	name  string
	state State
	fn    func(context.Context, *Run, *runState) error
}

// runState carries values between stages that are not part of Run.
type runState struct {
	meta describe.Metadata
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{name: "resolving", state: StateResolving, fn: p.resolve},
		{name: "enriching", state: StateEnriching, fn: p.enrich},
		{name: "uploading", state: StateUploading, fn: p.upload},
	}
}

// runStages executes stages in order and stops at the first error, returning
// the failing stage name.
func (p *Pipeline) runStages(ctx context.Context, logger *slog.Logger, run *Run) (string, error) {
	state := &runState{}
	for _, stg := range p.stages() {
		if stg.state == StateUploading && p.dryRun {
			logger.Info("dry run; upload skipped",
				logging.String(logging.FieldStage, stg.name),
				logging.String(logging.FieldEventType, "upload_skipped"),
			)
			continue
		}
		run.State = stg.state
		stageCtx := services.WithStage(ctx, stg.name)
		started := p.now()
		logging.WithContext(stageCtx, p.logger).Debug("stage started",
			logging.String(logging.FieldEventType, "stage_start"),
		)
		if err := callStage(stageCtx, stg, run, state); err != nil {
			return stg.name, err
		}
		p.observe(stg.state, started)
	}
	return "", nil
}

// callStage runs one stage, turning a panic into a stage error so the run
// still reaches a terminal state.
func callStage(ctx context.Context, stg stage, run *Run, state *runState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(services.ErrTransient, stg.name, "run stage", fmt.Sprintf("panic: %v", r), nil)
		}
	}()
	return stg.fn(ctx, run, state)
}

func (p *Pipeline) resolve(ctx context.Context, run *Run, _ *runState) error {
	instant, err := recording.StartTimeFromPath(run.Path, p.timezone)
	if err != nil {
		return err
	}
	run.RecordingStart = &instant

	res, err := p.deps.Resolver.Resolve(ctx, p.playerID, instant, p.window)
	if err != nil {
		return err
	}
	run.setMatchID(res.MatchID)
	run.MatchPass = res.Pass.String()

	logging.WithContext(ctx, p.logger).Info("match resolved",
		logging.Int64(logging.FieldMatchID, res.MatchID),
		logging.String("pass", res.Pass.String()),
		logging.Duration("distance", res.Distance),
		logging.Time("recording_start", instant),
		logging.String(logging.FieldEventType, "match_resolved"),
	)
	return nil
}

func (p *Pipeline) enrich(ctx context.Context, run *Run, state *runState) error {
	match, err := p.deps.Matches.Match(ctx, *run.MatchID)
	if err != nil {
		return err
	}
	if _, ok := match.Player(p.playerID); !ok {
		return services.Wrap(services.ErrValidation, "enriching", "find player",
			fmt.Sprintf("player %d not present in match %d", p.playerID, match.MatchID), nil)
	}
	cats, err := p.deps.Catalogs.Load(ctx)
	if err != nil {
		return err
	}

	state.meta = describe.Build(describe.Input{
		Match:          match,
		PlayerID:       p.playerID,
		Catalogs:       cats,
		RecordingStart: *run.RecordingStart,
		ExtraTags:      p.extraTags,
	})

	target := recording.DescriptionPath(run.Path)
	if err := fileutil.WriteFileAtomic(target, []byte(state.meta.Description), 0o644); err != nil {
		return services.Wrap(services.ErrValidation, "enriching", "write description", target, err)
	}
	run.DescriptionPath = &target

	logging.WithContext(ctx, p.logger).Info("description written",
		logging.String("description_path", target),
		logging.String("title", state.meta.Title),
		logging.Int("tags", len(state.meta.Tags)),
		logging.String(logging.FieldEventType, "description_written"),
	)
	return nil
}

func (p *Pipeline) upload(ctx context.Context, run *Run, state *runState) error {
	videoID, err := p.deps.Uploader.Upload(ctx, youtube.Video{
		Path:        run.Path,
		Title:       state.meta.Title,
		Description: state.meta.Description,
		Tags:        state.meta.Tags,
	})
	if err != nil {
		return err
	}
	run.VideoID = &videoID
	logging.WithContext(ctx, p.logger).Info("upload complete",
		logging.String("video_id", videoID),
		logging.String(logging.FieldEventType, "upload_complete"),
	)
	return nil
}

func (p *Pipeline) observe(state State, started time.Time) {
	metrics.ObserveStageDuration(string(state), p.now().Sub(started))
}
