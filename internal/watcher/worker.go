package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"matchreel/internal/logging"
	"matchreel/internal/pipeline"
)

// Processor runs one recording to a terminal state.
type Processor interface {
	Process(ctx context.Context, path string) *pipeline.Run
}

// Status is a snapshot of worker progress.
type Status struct {
	Current   string      `json:"current,omitempty"`
	Since     *time.Time  `json:"since,omitempty"`
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	LastRun   *RunSummary `json:"last_run,omitempty"`
}

// RunSummary describes the most recent finished run.
type RunSummary struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	State       string    `json:"state"`
	FailedStage string    `json:"failed_stage,omitempty"`
	Error       string    `json:"error,omitempty"`
	MatchID     *int64    `json:"match_id,omitempty"`
	VideoID     *string   `json:"video_id,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Worker drains a Queue sequentially; a run finishes before the next starts.
type Worker struct {
	queue  *Queue
	proc   Processor
	logger *slog.Logger

	mu     sync.Mutex
	status Status
}

// NewWorker builds a Worker.
func NewWorker(queue *Queue, proc Processor, logger *slog.Logger) *Worker {
	return &Worker{
		queue:  queue,
		proc:   proc,
		logger: logging.NewComponentLogger(logger, "worker"),
	}
}

// Run processes paths until ctx is cancelled. A run already in progress when
// ctx ends is allowed to finish.
func (w *Worker) Run(ctx context.Context) error {
	for {
		path, ok := w.queue.Pop(ctx)
		if !ok {
			return nil
		}
		w.begin(path)
		run := w.process(ctx, path)
		w.end(run)
		if ctx.Err() != nil {
			return nil
		}
	}
}

// process shields the loop from a panicking Processor; the recording is
// dropped and the next one is taken.
func (w *Worker) process(ctx context.Context, path string) (run *pipeline.Run) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("processing panicked",
				logging.String(logging.FieldRecording, path),
				logging.String(logging.FieldEventType, "process_panic"),
				logging.Any("panic", r),
			)
			w.mu.Lock()
			w.status.Processed++
			w.status.Failed++
			w.mu.Unlock()
			run = nil
		}
	}()
	return w.proc.Process(ctx, path)
}

// Status returns a snapshot of progress.
func (w *Worker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.status
	if out.LastRun != nil {
		last := *out.LastRun
		out.LastRun = &last
	}
	return out
}

func (w *Worker) begin(path string) {
	now := time.Now()
	w.mu.Lock()
	w.status.Current = path
	w.status.Since = &now
	w.mu.Unlock()
}

func (w *Worker) end(run *pipeline.Run) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.Current = ""
	w.status.Since = nil
	if run == nil || run.State == pipeline.StateAborted {
		return
	}
	w.status.Processed++
	summary := &RunSummary{
		ID:          run.ID,
		Path:        run.Path,
		State:       string(run.State),
		FailedStage: run.FailedStage,
		MatchID:     run.MatchID,
		VideoID:     run.VideoID,
		FinishedAt:  run.FinishedAt,
	}
	if run.Err != nil {
		w.status.Failed++
		summary.Error = run.Err.Error()
	}
	w.status.LastRun = summary
}
