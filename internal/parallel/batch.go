package parallel

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBatchSize     = 5
	DefaultBatchInterval = 500 * time.Millisecond
)

// BatchFunc processes one flushed batch of tasks.
type BatchFunc func(ctx context.Context, tasks []TaskFunc)

// BatchQueue accumulates tasks and flushes them when the batch fills or
// the interval elapses, whichever comes first.
type BatchQueue struct {
	mu       sync.Mutex
	pending  []TaskFunc
	size     int
	interval time.Duration
	flush    BatchFunc
	timer    *time.Timer
	closed   bool
	logger   *zap.Logger
}

func NewBatchQueue(size int, interval time.Duration, flush BatchFunc, logger *zap.Logger) *BatchQueue {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if interval <= 0 {
		interval = DefaultBatchInterval
	}
	return &BatchQueue{
		size:     size,
		interval: interval,
		flush:    flush,
		logger:   logger,
	}
}

// Add enqueues a task. A full batch flushes immediately; otherwise the
// interval timer is armed on the first pending task.
func (q *BatchQueue) Add(ctx context.Context, task TaskFunc) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, task)
	if len(q.pending) >= q.size {
		batch := q.takeLocked()
		q.mu.Unlock()
		q.flush(ctx, batch)
		return
	}
	if q.timer == nil {
		q.timer = time.AfterFunc(q.interval, func() { q.flushPending(ctx) })
	}
	q.mu.Unlock()
}

func (q *BatchQueue) flushPending(ctx context.Context) {
	q.mu.Lock()
	batch := q.takeLocked()
	q.mu.Unlock()
	if len(batch) > 0 {
		q.logger.Debug("flushing task batch", zap.Int("size", len(batch)))
		q.flush(ctx, batch)
	}
}

func (q *BatchQueue) takeLocked() []TaskFunc {
	batch := q.pending
	q.pending = nil
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	return batch
}

// Close flushes anything pending and rejects further adds.
func (q *BatchQueue) Close(ctx context.Context) {
	q.mu.Lock()
	q.closed = true
	batch := q.takeLocked()
	q.mu.Unlock()
	if len(batch) > 0 {
		q.flush(ctx, batch)
	}
}

func (q *BatchQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
