package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"matchreel/internal/pipeline"
	"matchreel/internal/watcher"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func popWithin(t *testing.T, q *watcher.Queue, d time.Duration) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	path, ok := q.Pop(ctx)
	if !ok {
		t.Fatalf("no path queued within %s", d)
	}
	return path
}

func TestQueueSuppressesWaitingDuplicates(t *testing.T) {
	q := watcher.NewQueue(4)
	ctx := context.Background()
	if !q.Push(ctx, "/a.mp4") {
		t.Fatal("expected first push to succeed")
	}
	if q.Push(ctx, "/a.mp4") {
		t.Fatal("expected duplicate push to be ignored")
	}
	if q.Len() != 1 {
		t.Fatalf("expected len 1, got %d", q.Len())
	}
	if got := popWithin(t, q, time.Second); got != "/a.mp4" {
		t.Fatalf("unexpected path %q", got)
	}
	if !q.Push(ctx, "/a.mp4") {
		t.Fatal("expected push after consumption to succeed")
	}
}

func TestQueuePushRespectsContextWhenFull(t *testing.T) {
	q := watcher.NewQueue(1)
	q.Push(context.Background(), "/a.mp4")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if q.Push(ctx, "/b.mp4") {
		t.Fatal("expected push to fail on a full queue once ctx ends")
	}
	if len(q.Pending()) != 1 {
		t.Fatalf("expected abandoned path released, pending=%v", q.Pending())
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := watcher.New(watcher.Options{Dir: t.TempDir(), Mode: "inotify"}, watcher.NewQueue(1))
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func runWatcher(t *testing.T, opts watcher.Options, q *watcher.Queue) context.CancelFunc {
	t.Helper()
	w, err := watcher.New(opts, q)
	if err != nil {
		t.Fatalf("watcher.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			t.Errorf("watcher run: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestPollModeQueuesBacklogInNameOrderThenNewFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "2024-05-02 10-00-00.mkv"))
	touch(t, filepath.Join(dir, "2024-05-01 09-00-00.MP4"))
	touch(t, filepath.Join(dir, "notes.txt"))
	if err := os.Mkdir(filepath.Join(dir, "sub.mp4"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	q := watcher.NewQueue(8)
	runWatcher(t, watcher.Options{
		Dir:             dir,
		Extensions:      []string{".mp4", ".mkv"},
		ProcessExisting: true,
		Mode:            watcher.ModePoll,
		PollInterval:    20 * time.Millisecond,
	}, q)

	first := popWithin(t, q, 2*time.Second)
	second := popWithin(t, q, 2*time.Second)
	if filepath.Base(first) != "2024-05-01 09-00-00.MP4" || filepath.Base(second) != "2024-05-02 10-00-00.mkv" {
		t.Fatalf("unexpected backlog order: %q, %q", first, second)
	}

	live := filepath.Join(dir, "2024-05-03 11-00-00.mp4")
	touch(t, live)
	if got := popWithin(t, q, 2*time.Second); got != live {
		t.Fatalf("expected live file %q, got %q", live, got)
	}
}

func TestPollModeIgnoresExistingWithoutBacklog(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "old.mp4"))

	q := watcher.NewQueue(8)
	runWatcher(t, watcher.Options{
		Dir:          dir,
		Extensions:   []string{".mp4"},
		Mode:         watcher.ModePoll,
		PollInterval: 20 * time.Millisecond,
	}, q)

	fresh := filepath.Join(dir, "new.mp4")
	touch(t, fresh)
	if got := popWithin(t, q, 2*time.Second); got != fresh {
		t.Fatalf("expected only the new file, got %q", got)
	}
	time.Sleep(100 * time.Millisecond)
	if q.Len() != 0 {
		t.Fatalf("expected nothing else queued, pending=%v", q.Pending())
	}
}

func TestNotifyModeQueuesCreatedFiles(t *testing.T) {
	dir := t.TempDir()
	q := watcher.NewQueue(8)
	runWatcher(t, watcher.Options{
		Dir:        dir,
		Extensions: []string{"mkv"},
		Mode:       watcher.ModeFSNotify,
	}, q)

	// Give the watcher a moment to register before creating files.
	time.Sleep(100 * time.Millisecond)
	touch(t, filepath.Join(dir, "ignored.log"))
	target := filepath.Join(dir, "2024-05-02 10-00-00.MKV")
	touch(t, target)

	if got := popWithin(t, q, 3*time.Second); got != target {
		t.Fatalf("expected %q, got %q", target, got)
	}
}

type fakeProcessor struct {
	mu      sync.Mutex
	active  int
	overlap bool
	paths   []string
}

func (f *fakeProcessor) Process(_ context.Context, path string) *pipeline.Run {
	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlap = true
	}
	f.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	f.mu.Lock()
	f.active--
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	return &pipeline.Run{ID: path, Path: path, State: pipeline.StateDone, FinishedAt: time.Now()}
}

func TestWorkerProcessesSequentiallyInOrder(t *testing.T) {
	q := watcher.NewQueue(8)
	for _, p := range []string{"/a.mp4", "/b.mp4", "/c.mp4"} {
		q.Push(context.Background(), p)
	}
	proc := &fakeProcessor{}
	w := watcher.NewWorker(q, proc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for w.Status().Processed < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("worker processed %d of 3", w.Status().Processed)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if proc.overlap {
		t.Fatal("runs overlapped")
	}
	if len(proc.paths) != 3 || proc.paths[0] != "/a.mp4" || proc.paths[2] != "/c.mp4" {
		t.Fatalf("unexpected processing order: %v", proc.paths)
	}
	status := w.Status()
	if status.LastRun == nil || status.LastRun.Path != "/c.mp4" || status.Failed != 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

type panickyProcessor struct {
	fakeProcessor
	bad string
}

func (p *panickyProcessor) Process(ctx context.Context, path string) *pipeline.Run {
	if path == p.bad {
		panic("boom")
	}
	return p.fakeProcessor.Process(ctx, path)
}

func TestWorkerSurvivesPanickingProcessor(t *testing.T) {
	q := watcher.NewQueue(8)
	q.Push(context.Background(), "/bad.mp4")
	q.Push(context.Background(), "/good.mp4")
	proc := &panickyProcessor{bad: "/bad.mp4"}
	w := watcher.NewWorker(q, proc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for w.Status().Processed < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("worker processed %d of 2", w.Status().Processed)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	status := w.Status()
	if status.Failed != 1 {
		t.Fatalf("expected one failed run, got %d", status.Failed)
	}
	if status.Current != "" {
		t.Fatalf("expected idle worker, got current %q", status.Current)
	}
	if status.LastRun == nil || status.LastRun.Path != "/good.mp4" {
		t.Fatalf("expected later recording processed, got %+v", status.LastRun)
	}
}
