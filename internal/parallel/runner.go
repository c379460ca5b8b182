package parallel

import (
	"context"
	"sync"
	"time"

	"github.com/pds-ultimate/research/internal/domain"
	"go.uber.org/zap"
)

// TaskFunc is one unit of parallel work.
type TaskFunc func(ctx context.Context) (any, error)

// Runner executes a keyed set of independent tasks under the
// concurrency manager and collects one result per task. A panicking or
// failing task produces a failed result, never a lost one.
type Runner struct {
	manager *ConcurrencyManager
	logger  *zap.Logger
}

func NewRunner(manager *ConcurrencyManager, logger *zap.Logger) *Runner {
	return &Runner{manager: manager, logger: logger}
}

// RunAll executes every task and returns results keyed by task id. It
// always returns exactly one result per input task.
func (r *Runner) RunAll(ctx context.Context, tasks map[string]TaskFunc, category Category) map[string]domain.ParallelResult {
	results := make(map[string]domain.ParallelResult, len(tasks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for id, task := range tasks {
		wg.Add(1)
		go func(id string, task TaskFunc) {
			defer wg.Done()
			res := r.runOne(ctx, id, task, category)
			mu.Lock()
			results[id] = res
			mu.Unlock()
		}(id, task)
	}
	wg.Wait()
	return results
}

func (r *Runner) runOne(ctx context.Context, id string, task TaskFunc, category Category) domain.ParallelResult {
	start := time.Now()
	if err := r.manager.Acquire(ctx, category); err != nil {
		return domain.ParallelResult{
			TaskID:     id,
			Error:      err.Error(),
			DurationMS: float64(time.Since(start).Microseconds()) / 1000,
		}
	}
	defer r.manager.Release(category)

	out, err := task(ctx)
	res := domain.ParallelResult{
		TaskID:     id,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		res.Error = err.Error()
		r.logger.Warn("parallel task failed", zap.String("task_id", id), zap.Error(err))
		return res
	}
	res.Success = true
	res.Result = out
	return res
}
