package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"matchreel/internal/history"
	"matchreel/internal/logging"
	"matchreel/internal/metrics"
	"matchreel/internal/notifications"
	"matchreel/internal/services"
)

// finish sends the single terminal notification, records history and metrics.
// Neither notification nor history failures change the run outcome.
func (p *Pipeline) finish(ctx context.Context, logger *slog.Logger, run *Run, failedStage string, stageErr error) {
	if stageErr != nil {
		run.State = StateFailed
		run.FailedStage = failedStage
		run.Err = stageErr
		p.logFailure(logger, run)
	}

	terminal := run.State
	if terminal != StateFailed {
		terminal = StateDone
	}
	run.State = StateNotifying
	p.notify(services.WithStage(ctx, string(StateNotifying)), logger, run)
	run.State = terminal
	run.FinishedAt = p.now()

	status, kind := history.StatusSuccess, ""
	if run.State == StateFailed {
		status, kind = history.StatusError, services.Classify(run.Err)
	}
	metrics.IncreaseRunsTotal(status, kind)
	p.record(ctx, logger, run, status, kind)

	if run.State == StateDone {
		logger.Info("run finished",
			logging.String(logging.FieldEventType, "run_finished"),
			logging.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
		)
	}
}

func (p *Pipeline) logFailure(logger *slog.Logger, run *Run) {
	attrs := []logging.Attr{
		logging.String(logging.FieldStage, run.FailedStage),
		logging.String("error_kind", services.Classify(run.Err)),
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String(logging.FieldErrorHint, failureHint(run.Err)),
		logging.Error(run.Err),
	}
	if run.MatchID != nil {
		attrs = append(attrs, logging.Int64(logging.FieldMatchID, *run.MatchID))
	}
	logging.ErrorWithContext(logger, "run failed", "stage_failure", attrs...)
}

func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, run *Run) {
	result := notifications.Result{
		Status:          notifications.StatusSuccess,
		StartedAt:       run.StartedAt,
		FinishedAt:      p.now(),
		VideoPath:       run.Path,
		DescriptionPath: run.DescriptionPath,
		MatchID:         run.MatchID,
		YouTubeVideoID:  run.VideoID,
	}
	if run.Err != nil {
		msg := strings.TrimSpace(run.Err.Error())
		result.Status = notifications.StatusError
		result.Error = &msg
	}

	if err := p.deps.Notifier.NotifyRunFinished(ctx, result); err != nil {
		metrics.IncreaseNotifications("error")
		logging.WarnWithContext(logger, "completion notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.webhook_url"),
			logging.String(logging.FieldImpact, "run outcome was not reported"),
		)
		return
	}
	metrics.IncreaseNotifications("sent")
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, run *Run, status, kind string) {
	if p.deps.History == nil {
		return
	}
	entry := history.Entry{
		ID:              run.ID,
		RecordingPath:   run.Path,
		RecordingStart:  run.RecordingStart,
		MatchID:         run.MatchID,
		VideoID:         run.VideoID,
		DescriptionPath: run.DescriptionPath,
		Status:          status,
		FailedStage:     run.FailedStage,
		ErrorKind:       kind,
		DryRun:          run.DryRun,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
	}
	if run.Err != nil {
		entry.ErrorMessage = run.Err.Error()
	}
	if err := p.deps.History.Record(ctx, entry); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history database in log_dir"),
			logging.String(logging.FieldImpact, "run missing from history"),
		)
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrNameParse):
		return "rename the recording to the OBS default YYYY-MM-DD HH-MM-SS pattern"
	case errors.Is(err, services.ErrNoMatch):
		return "check matching.player_id, recording.timezone and the match window"
	case errors.Is(err, services.ErrProvider):
		return "check OpenDota availability and opendota.api_key"
	case errors.Is(err, services.ErrUpload):
		return "check YouTube credentials and quota; the description file was kept"
	case errors.Is(err, services.ErrConfiguration):
		return "run matchreel config validate"
	default:
		return "check logs for details"
	}
}
