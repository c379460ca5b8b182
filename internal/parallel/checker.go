package parallel

import (
	"context"
	"sync"
	"time"

	"github.com/pds-ultimate/research/internal/domain"
	"go.uber.org/zap"
)

// CheckFunc verifies one hypothesis. Implementations must return the
// hypothesis in a terminal status on success.
type CheckFunc func(ctx context.Context, h domain.Hypothesis) (domain.Hypothesis, error)

// HypothesisChecker fans a batch of hypotheses out across the
// concurrency manager. A failed check marks that hypothesis as errored
// and never aborts the batch.
type HypothesisChecker struct {
	manager *ConcurrencyManager
	logger  *zap.Logger
}

func NewHypothesisChecker(manager *ConcurrencyManager, logger *zap.Logger) *HypothesisChecker {
	return &HypothesisChecker{manager: manager, logger: logger}
}

// CheckAll verifies every hypothesis concurrently and returns them in
// input order. Each hypothesis moves to checking before its goroutine
// runs, then to a terminal status when the check resolves.
func (c *HypothesisChecker) CheckAll(ctx context.Context, hypotheses []domain.Hypothesis, check CheckFunc) []domain.Hypothesis {
	results := make([]domain.Hypothesis, len(hypotheses))
	for i := range hypotheses {
		hypotheses[i].Status = domain.HypothesisChecking
		results[i] = hypotheses[i]
	}

	var wg sync.WaitGroup
	for i := range hypotheses {
		wg.Add(1)
		go func(idx int, h domain.Hypothesis) {
			defer wg.Done()
			results[idx] = c.checkOne(ctx, h, check)
		}(i, hypotheses[i])
	}
	wg.Wait()
	return results
}

func (c *HypothesisChecker) checkOne(ctx context.Context, h domain.Hypothesis, check CheckFunc) domain.Hypothesis {
	if err := c.manager.Acquire(ctx, CategoryLLM); err != nil {
		return markErrored(h, err.Error())
	}
	defer c.manager.Release(CategoryLLM)

	start := time.Now()
	checked, err := check(ctx, h)
	if err != nil {
		c.logger.Warn("hypothesis check failed",
			zap.String("hypothesis_id", h.ID),
			zap.Error(err))
		return markErrored(h, err.Error())
	}

	if !checked.Status.Terminal() {
		checked.Status = domain.HypothesisUncertain
	}
	now := time.Now()
	checked.CheckedAt = &now
	c.logger.Debug("hypothesis checked",
		zap.String("hypothesis_id", checked.ID),
		zap.String("status", string(checked.Status)),
		zap.Duration("took", time.Since(start)))
	return checked
}

func markErrored(h domain.Hypothesis, msg string) domain.Hypothesis {
	now := time.Now()
	h.Status = domain.HypothesisError
	h.CheckResult = msg
	h.Confidence = 0
	h.CheckedAt = &now
	return h
}

// Summarize aggregates a checked batch. AvgConfidence averages over all
// hypotheses including errored ones.
func Summarize(hypotheses []domain.Hypothesis) domain.HypothesisSummary {
	s := domain.HypothesisSummary{Total: len(hypotheses)}
	if len(hypotheses) == 0 {
		return s
	}
	sum := 0.0
	for _, h := range hypotheses {
		switch h.Status {
		case domain.HypothesisConfirmed:
			s.Confirmed++
		case domain.HypothesisRefuted:
			s.Refuted++
		case domain.HypothesisUncertain:
			s.Uncertain++
		case domain.HypothesisError:
			s.Errors++
		}
		sum += h.Confidence
	}
	s.AvgConfidence = sum / float64(len(hypotheses))
	return s
}
