package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"matchreel/internal/config"
	"matchreel/internal/history"
	"matchreel/internal/logging"
	"matchreel/internal/watcher"
)

// RunLog is the read side of the history store.
type RunLog interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
	Get(ctx context.Context, id string) (*history.Entry, error)
	Counts(ctx context.Context) (history.Counts, error)
}

// WatchSource feeds recordings into the queue until ctx ends. A non-nil
// error means it can no longer detect recordings.
type WatchSource interface {
	Run(ctx context.Context) error
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithWatchSource replaces the directory watcher built from config.
func WithWatchSource(src WatchSource) Option {
	return func(d *Daemon) {
		if src != nil {
			d.watcher = src
		}
	}
}

// Daemon owns the watcher, worker and status API.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	runs    RunLog
	queue   *watcher.Queue
	watcher WatchSource
	worker  *watcher.Worker
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	failMu   sync.Mutex
	watchErr error
	failed   chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	WatchDir      string         `json:"watch_dir"`
	WatchMode     string         `json:"watch_mode"`
	DryRun        bool           `json:"dry_run"`
	QueueDepth    int            `json:"queue_depth"`
	Pending       []string       `json:"pending,omitempty"`
	Worker        watcher.Status `json:"worker"`
	History       history.Counts `json:"history"`
	HistoryError  string         `json:"history_error,omitempty"`
	WatchError    string         `json:"watch_error,omitempty"`
	LockFilePath  string         `json:"lock_file"`
	HistoryDBPath string         `json:"history_db"`
}

// New constructs a daemon around proc. runs may be nil, in which case the
// runs endpoints report an empty history.
func New(cfg *config.Config, runs RunLog, proc watcher.Processor, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || proc == nil {
		return nil, errors.New("daemon requires config and processor")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	queue := watcher.NewQueue(cfg.Watch.QueueSize)
	w, err := watcher.NewFromConfig(cfg, queue, logger)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		runs:     runs,
		queue:    queue,
		watcher:  w,
		worker:   watcher.NewWorker(queue, proc, logger),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
		failed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and launches the watcher, worker and API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another matchreel daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.startedAt = time.Now()

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		err := d.watcher.Run(runCtx)
		if runCtx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("recording watcher exited")
		}
		logging.ErrorWithContext(d.logger, "recording watcher stopped", "watcher_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.watch_dir exists and is readable"),
			logging.String(logging.FieldImpact, "daemon stops after the current run"),
		)
		d.fail(err)
		cancel()
	}()
	go func() {
		defer d.wg.Done()
		_ = d.worker.Run(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("matchreel daemon started",
		logging.String("lock", d.lockPath),
		logging.String("watch_dir", d.cfg.Paths.WatchDir),
		logging.Bool("dry_run", d.cfg.Workflow.DryRun),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

func (d *Daemon) fail(err error) {
	d.failMu.Lock()
	defer d.failMu.Unlock()
	if d.watchErr != nil {
		return
	}
	d.watchErr = err
	close(d.failed)
}

// Failed is closed once the watch source has stopped with an error.
func (d *Daemon) Failed() <-chan struct{} {
	return d.failed
}

// WatchErr returns the error that stopped the watch source, if any.
func (d *Daemon) WatchErr() error {
	d.failMu.Lock()
	defer d.failMu.Unlock()
	return d.watchErr
}

// Stop cancels the watcher, waits for the current run to finish and releases
// the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "a stale lock file may remain"),
		)
	}
	d.running.Store(false)
	d.logger.Info("matchreel daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		WatchDir:      d.cfg.Paths.WatchDir,
		WatchMode:     d.cfg.Watch.Mode,
		DryRun:        d.cfg.Workflow.DryRun,
		QueueDepth:    d.queue.Len(),
		Pending:       d.queue.Pending(),
		Worker:        d.worker.Status(),
		LockFilePath:  d.lockPath,
		HistoryDBPath: d.cfg.HistoryDBPath(),
	}
	if status.Running {
		started := d.startedAt
		status.StartedAt = &started
	}
	if err := d.WatchErr(); err != nil {
		status.WatchError = err.Error()
	}
	if d.runs != nil {
		counts, err := d.runs.Counts(ctx)
		if err != nil {
			status.HistoryError = err.Error()
		}
		status.History = counts
	}
	return status
}

// APIAddr returns the status API listen address once started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}
