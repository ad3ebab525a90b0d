package watcher

import (
	"context"
	"sync"

	"matchreel/internal/metrics"
)

// Queue is a bounded FIFO of recording paths that ignores a path while an
// earlier copy of it is still waiting.
type Queue struct {
	ch chan string

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewQueue creates a queue holding at most size paths. Push blocks while it
// is full.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{ch: make(chan string, size), pending: make(map[string]struct{})}
}

// Push enqueues path. It returns false when path is already waiting or ctx
// ends first.
func (q *Queue) Push(ctx context.Context, path string) bool {
	q.mu.Lock()
	if _, ok := q.pending[path]; ok {
		q.mu.Unlock()
		return false
	}
	q.pending[path] = struct{}{}
	q.mu.Unlock()

	select {
	case q.ch <- path:
		metrics.SetQueueDepth(len(q.ch))
		return true
	case <-ctx.Done():
		q.mu.Lock()
		delete(q.pending, path)
		q.mu.Unlock()
		return false
	}
}

// Pop blocks until a path is available or ctx ends.
func (q *Queue) Pop(ctx context.Context) (string, bool) {
	select {
	case path := <-q.ch:
		q.mu.Lock()
		delete(q.pending, path)
		q.mu.Unlock()
		metrics.SetQueueDepth(len(q.ch))
		return path, true
	case <-ctx.Done():
		return "", false
	}
}

// Len returns the number of waiting paths.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Pending returns a snapshot of the waiting paths in no particular order.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.pending))
	for path := range q.pending {
		out = append(out, path)
	}
	return out
}
