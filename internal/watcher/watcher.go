package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lthibault/jitterbug/v2"

	"matchreel/internal/config"
	"matchreel/internal/logging"
	"matchreel/internal/recording"
)

// Watch modes.
const (
	ModeFSNotify = "fsnotify"
	ModePoll     = "poll"
)

// Options configures a Watcher.
type Options struct {
	Dir             string
	Extensions      []string
	ProcessExisting bool
	Mode            string
	PollInterval    time.Duration
	Logger          *slog.Logger
}

// Watcher feeds qualifying recording paths into a Queue.
type Watcher struct {
	opts   Options
	queue  *Queue
	logger *slog.Logger
}

// New validates opts and builds a Watcher that pushes into queue.
func New(opts Options, queue *Queue) (*Watcher, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("watcher: directory required")
	}
	if queue == nil {
		return nil, errors.New("watcher: queue required")
	}
	switch opts.Mode {
	case "":
		opts.Mode = ModeFSNotify
	case ModeFSNotify, ModePoll:
	default:
		return nil, fmt.Errorf("watcher: unsupported mode %q", opts.Mode)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Watcher{
		opts:   opts,
		queue:  queue,
		logger: logging.NewComponentLogger(opts.Logger, "watcher"),
	}, nil
}

// NewFromConfig builds a Watcher from the [watch] section.
func NewFromConfig(cfg *config.Config, queue *Queue, logger *slog.Logger) (*Watcher, error) {
	return New(Options{
		Dir:             cfg.Paths.WatchDir,
		Extensions:      cfg.Watch.Extensions,
		ProcessExisting: cfg.Watch.ProcessExisting,
		Mode:            cfg.Watch.Mode,
		PollInterval:    time.Duration(cfg.Watch.PollInterval) * time.Second,
		Logger:          logger,
	}, queue)
}

// Run watches until ctx is cancelled. The backlog, when enabled, is queued
// in name order before any live event.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching recording folder",
		logging.String("dir", w.opts.Dir),
		logging.String("mode", w.opts.Mode),
		logging.Any("extensions", w.opts.Extensions),
		logging.Bool("process_existing", w.opts.ProcessExisting),
		logging.String(logging.FieldEventType, "watcher_started"),
	)
	if w.opts.Mode == ModePoll {
		return w.runPoll(ctx)
	}
	return w.runNotify(ctx)
}

func (w *Watcher) runNotify(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.opts.Dir, err)
	}

	if w.opts.ProcessExisting {
		existing, err := w.scan()
		if err != nil {
			return err
		}
		w.enqueueBacklog(ctx, existing)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !w.qualifies(event.Name) {
				continue
			}
			w.enqueue(ctx, event.Name, "fsnotify")
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "filesystem watch error", "watcher_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "consider watch.mode = \"poll\" for network shares"),
				logging.String(logging.FieldImpact, "some new recordings may be missed"),
			)
		}
	}
}

func (w *Watcher) runPoll(ctx context.Context) error {
	existing, err := w.scan()
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(existing))
	for _, path := range existing {
		known[path] = struct{}{}
	}
	if w.opts.ProcessExisting {
		w.enqueueBacklog(ctx, existing)
	}

	ticker := jitterbug.New(w.opts.PollInterval, &jitterbug.Norm{Stdev: w.opts.PollInterval / 10})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		current, err := w.scan()
		if err != nil {
			logging.WarnWithContext(w.logger, "recording folder scan failed", "watcher_scan_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that paths.watch_dir is mounted and readable"),
				logging.String(logging.FieldImpact, "new recordings are not detected until the scan succeeds"),
			)
			continue
		}
		seen := make(map[string]struct{}, len(current))
		for _, path := range current {
			seen[path] = struct{}{}
			if _, ok := known[path]; ok {
				continue
			}
			known[path] = struct{}{}
			w.enqueue(ctx, path, "poll")
		}
		for path := range known {
			if _, ok := seen[path]; !ok {
				delete(known, path)
			}
		}
	}
}

func (w *Watcher) enqueueBacklog(ctx context.Context, paths []string) {
	for _, path := range paths {
		w.enqueue(ctx, path, "backlog")
	}
	if len(paths) > 0 {
		w.logger.Info("backlog queued",
			logging.Int("count", len(paths)),
			logging.String(logging.FieldEventType, "backlog_queued"),
		)
	}
}

func (w *Watcher) enqueue(ctx context.Context, path, source string) {
	if !w.queue.Push(ctx, path) {
		w.logger.Debug("recording already queued", logging.String(logging.FieldRecording, path))
		return
	}
	w.logger.Info("recording detected",
		logging.String(logging.FieldRecording, path),
		logging.String("source", source),
		logging.Int("queue_depth", w.queue.Len()),
		logging.String(logging.FieldEventType, "recording_detected"),
	)
}

// scan lists qualifying files in the watch directory sorted by name.
func (w *Watcher) scan() ([]string, error) {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", w.opts.Dir, err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !recording.HasExtension(entry.Name(), w.opts.Extensions) {
			continue
		}
		paths = append(paths, filepath.Join(w.opts.Dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func (w *Watcher) qualifies(path string) bool {
	if !recording.HasExtension(path, w.opts.Extensions) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		// Vanished already; the pipeline would only fail on it.
		return false
	}
	return info.Mode().IsRegular()
}
