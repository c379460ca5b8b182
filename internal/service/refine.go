package service

import (
	"sync"
	"time"

	"github.com/pds-ultimate/research/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultMaxIterations    = 3
	DefaultTargetConfidence = 0.8
)

// RefinementLoop drives bounded iterative answer improvement. The loop
// itself performs no I/O; callers run the search and report confidence
// back through ObserveConfidence.
type RefinementLoop struct {
	mu               sync.Mutex
	maxIterations    int
	targetConfidence float64
	analyzer         *GapAnalyzer
	expander         *QueryExpander
	history          []domain.RefinementStep
	logger           *zap.Logger
}

func NewRefinementLoop(maxIterations int, targetConfidence float64, analyzer *GapAnalyzer, expander *QueryExpander, logger *zap.Logger) *RefinementLoop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if targetConfidence <= 0 {
		targetConfidence = DefaultTargetConfidence
	}
	return &RefinementLoop{
		maxIterations:    maxIterations,
		targetConfidence: targetConfidence,
		analyzer:         analyzer,
		expander:         expander,
		logger:           logger,
	}
}

// ShouldContinue checks termination conditions in order: iteration cap
// first, then target confidence, then absence of gaps.
func (l *RefinementLoop) ShouldContinue(iteration int, confidence float64, gaps []domain.InformationGap) bool {
	if iteration >= l.maxIterations {
		return false
	}
	if confidence >= l.targetConfidence {
		return false
	}
	return len(gaps) > 0
}

// RefineQuery produces the next query to try. The highest-priority gap
// supplies its suggested query and a contextual expansion pass runs on
// top of it; with no gaps the original query comes back untouched.
// ConfidenceAfter starts equal to ConfidenceBefore until the caller
// observes the real result.
func (l *RefinementLoop) RefineQuery(originalQuery, currentAnswer string, sourceCount int, confidence float64, iteration int, contextText string) (string, []domain.InformationGap) {
	gaps := l.analyzer.Analyze(originalQuery, currentAnswer, sourceCount, confidence)

	next := originalQuery
	if len(gaps) > 0 {
		if gaps[0].SuggestedQuery != "" {
			next = gaps[0].SuggestedQuery
		}
		expanded := l.expander.Expand(next, domain.StrategyContextual, contextText, DefaultMaxExpansions)
		if expanded.Changed() {
			next = expanded.Expanded
		}
	}

	l.mu.Lock()
	l.history = append(l.history, domain.RefinementStep{
		Iteration:        iteration,
		Query:            next,
		GapsFound:        gaps,
		ConfidenceBefore: confidence,
		ConfidenceAfter:  confidence,
		Timestamp:        time.Now(),
	})
	l.mu.Unlock()

	l.logger.Debug("refined query",
		zap.Int("iteration", iteration),
		zap.Int("gaps", len(gaps)),
		zap.String("next_query", next))
	return next, gaps
}

// ObserveConfidence back-fills the outcome of the step recorded for the
// given iteration. Unknown iterations are ignored.
func (l *RefinementLoop) ObserveConfidence(iteration int, confidence float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.history) - 1; i >= 0; i-- {
		if l.history[i].Iteration == iteration {
			l.history[i].ConfidenceAfter = confidence
			return
		}
	}
}

// History returns a copy of the recorded steps.
func (l *RefinementLoop) History() []domain.RefinementStep {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.RefinementStep, len(l.history))
	copy(out, l.history)
	return out
}

func (l *RefinementLoop) ClearHistory() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = l.history[:0]
}

// LoopStats summarizes recorded refinement activity.
type LoopStats struct {
	TotalSteps       int     `json:"total_steps"`
	AvgImprovement   float64 `json:"avg_improvement"`
	MaxIterations    int     `json:"max_iterations"`
	TargetConfidence float64 `json:"target_confidence"`
}

func (l *RefinementLoop) Stats() LoopStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	stats := LoopStats{
		TotalSteps:       len(l.history),
		MaxIterations:    l.maxIterations,
		TargetConfidence: l.targetConfidence,
	}
	if len(l.history) > 0 {
		sum := 0.0
		for _, s := range l.history {
			sum += s.ConfidenceDelta()
		}
		stats.AvgImprovement = sum / float64(len(l.history))
	}
	return stats
}
