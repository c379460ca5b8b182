package service

import (
	"sort"
	"sync"
	"time"

	"github.com/pds-ultimate/research/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultMaxHistory          = 1000
	DefaultAutoSearchThreshold = 0.7
	DefaultMaxSearchIterations = 3
)

// ActionOutcome records how one suggested action worked out.
type ActionOutcome struct {
	Action    domain.SearchAction `json:"action"`
	Success   bool                `json:"success"`
	Delta     float64             `json:"delta"`
	Timestamp time.Time           `json:"timestamp"`
}

// ActionEffectiveness aggregates outcomes per action.
type ActionEffectiveness struct {
	Count          int     `json:"count"`
	SuccessRate    float64 `json:"success_rate"`
	AvgImprovement float64 `json:"avg_improvement"`
}

// UncertaintyTracker keeps a bounded history of confidence scores and
// counts uncertainty types for calibration. Not safe for concurrent use
// from multiple goroutines without the internal lock it carries.
type UncertaintyTracker struct {
	mu         sync.Mutex
	history    []domain.ConfidenceScore
	byType     map[domain.UncertaintyType]int
	outcomes   []ActionOutcome
	maxHistory int
	logger     *zap.Logger
}

func NewUncertaintyTracker(maxHistory int, logger *zap.Logger) *UncertaintyTracker {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &UncertaintyTracker{
		history:    make([]domain.ConfidenceScore, 0, maxHistory/4),
		byType:     make(map[domain.UncertaintyType]int),
		maxHistory: maxHistory,
		logger:     logger,
	}
}

// Track records a score. When the history exceeds its cap it is
// truncated to the most recent half of the cap.
func (t *UncertaintyTracker) Track(score domain.ConfidenceScore) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, score)
	if len(t.history) > t.maxHistory {
		keep := t.maxHistory / 2
		t.history = append(t.history[:0:0], t.history[len(t.history)-keep:]...)
		t.logger.Debug("uncertainty history truncated", zap.Int("kept", keep))
	}
	for _, u := range score.Uncertainties {
		t.byType[u]++
	}
}

func (t *UncertaintyTracker) RecordOutcome(action domain.SearchAction, success bool, confidenceBefore, confidenceAfter float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = append(t.outcomes, ActionOutcome{
		Action:    action,
		Success:   success,
		Delta:     confidenceAfter - confidenceBefore,
		Timestamp: time.Now(),
	})
}

func (t *UncertaintyTracker) AverageConfidence() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.history) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, s := range t.history {
		sum += s.Value
	}
	return sum / float64(len(t.history))
}

func (t *UncertaintyTracker) LowConfidenceRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.history) == 0 {
		return 0
	}
	low := 0
	for _, s := range t.history {
		if s.Value < 0.5 {
			low++
		}
	}
	return float64(low) / float64(len(t.history))
}

type uncertaintyCount struct {
	Type  domain.UncertaintyType `json:"type"`
	Count int                    `json:"count"`
}

// MostCommonUncertainties returns the top-n uncertainty types by count.
func (t *UncertaintyTracker) MostCommonUncertainties(topN int) []uncertaintyCount {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make([]uncertaintyCount, 0, len(t.byType))
	for u, c := range t.byType {
		counts = append(counts, uncertaintyCount{Type: u, Count: c})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > topN {
		counts = counts[:topN]
	}
	return counts
}

func (t *UncertaintyTracker) ActionEffectiveness() map[domain.SearchAction]ActionEffectiveness {
	t.mu.Lock()
	defer t.mu.Unlock()

	grouped := make(map[domain.SearchAction][]ActionOutcome)
	for _, o := range t.outcomes {
		grouped[o.Action] = append(grouped[o.Action], o)
	}

	result := make(map[domain.SearchAction]ActionEffectiveness, len(grouped))
	for action, outcomes := range grouped {
		successes := 0
		deltaSum := 0.0
		for _, o := range outcomes {
			if o.Success {
				successes++
			}
			deltaSum += o.Delta
		}
		result[action] = ActionEffectiveness{
			Count:          len(outcomes),
			SuccessRate:    float64(successes) / float64(len(outcomes)),
			AvgImprovement: deltaSum / float64(len(outcomes)),
		}
	}
	return result
}

// TrackerStats is a snapshot for the stats endpoint.
type TrackerStats struct {
	TotalTracked      int                            `json:"total_tracked"`
	AverageConfidence float64                        `json:"average_confidence"`
	LowConfidenceRate float64                        `json:"low_confidence_rate"`
	Uncertainties     map[domain.UncertaintyType]int `json:"uncertainties"`
	ActionOutcomes    int                            `json:"action_outcomes"`
}

func (t *UncertaintyTracker) Stats() TrackerStats {
	avg := t.AverageConfidence()
	lowRate := t.LowConfidenceRate()

	t.mu.Lock()
	defer t.mu.Unlock()
	byType := make(map[domain.UncertaintyType]int, len(t.byType))
	for k, v := range t.byType {
		byType[k] = v
	}
	return TrackerStats{
		TotalTracked:      len(t.history),
		AverageConfidence: avg,
		LowConfidenceRate: lowRate,
		Uncertainties:     byType,
		ActionOutcomes:    len(t.outcomes),
	}
}

// SearchPlan is the parameterized follow-up search suggested for a
// low-confidence score.
type SearchPlan struct {
	Action       domain.SearchAction `json:"action"`
	Iteration    int                 `json:"iteration"`
	MaxSources   int                 `json:"max_sources,omitempty"`
	ExpandQuery  bool                `json:"expand_queries,omitempty"`
	PreferRecent bool                `json:"prefer_recent,omitempty"`
	VerifyMode   bool                `json:"verify_mode,omitempty"`
	MinTrust     float64             `json:"min_trust,omitempty"`
	Expansions   int                 `json:"expansions,omitempty"`
}

// AutoSearchTrigger decides when a score warrants another search pass
// and what that pass should look like.
type AutoSearchTrigger struct {
	mu            sync.Mutex
	threshold     float64
	maxIterations int
	triggersFired int
}

func NewAutoSearchTrigger(threshold float64, maxIterations int) *AutoSearchTrigger {
	if threshold <= 0 {
		threshold = DefaultAutoSearchThreshold
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxSearchIterations
	}
	return &AutoSearchTrigger{threshold: threshold, maxIterations: maxIterations}
}

func (a *AutoSearchTrigger) ShouldSearch(score domain.ConfidenceScore) bool {
	return score.Value < a.threshold
}

// SearchPlan returns nil when iterations are exhausted or the score is
// already good enough.
func (a *AutoSearchTrigger) SearchPlan(score domain.ConfidenceScore, iteration int) *SearchPlan {
	if iteration >= a.maxIterations || !a.ShouldSearch(score) {
		return nil
	}

	a.mu.Lock()
	a.triggersFired++
	a.mu.Unlock()

	plan := &SearchPlan{Action: score.SuggestedAction, Iteration: iteration + 1}
	switch score.SuggestedAction {
	case domain.ActionFullResearch:
		plan.MaxSources = 5 + iteration*2
		plan.ExpandQuery = true
	case domain.ActionAddSources:
		plan.MaxSources = 3 + iteration
		plan.PreferRecent = true
	case domain.ActionVerifyFacts:
		plan.VerifyMode = true
		plan.MinTrust = 0.7
	case domain.ActionExpandQuery:
		plan.Expansions = 2 + iteration
	}
	return plan
}

func (a *AutoSearchTrigger) TriggersFired() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.triggersFired
}

// ConfidenceCalibrator corrects systematic over- or under-confidence
// using recorded prediction outcomes.
type ConfidenceCalibrator struct {
	mu          sync.Mutex
	predictions []calibratorSample
	factor      float64
}

type calibratorSample struct {
	predicted float64
	correct   bool
}

const (
	calibratorMaxSamples = 500
	calibratorMinSamples = 10
	calibratorMinFactor  = 0.5
	calibratorMaxFactor  = 1.5
)

func NewConfidenceCalibrator() *ConfidenceCalibrator {
	return &ConfidenceCalibrator{factor: 1.0}
}

func (c *ConfidenceCalibrator) Record(predicted float64, wasCorrect bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.predictions = append(c.predictions, calibratorSample{predicted, wasCorrect})
	if len(c.predictions) > calibratorMaxSamples {
		c.predictions = append(c.predictions[:0:0], c.predictions[len(c.predictions)-calibratorMaxSamples/2:]...)
	}
	c.recalc()
}

func (c *ConfidenceCalibrator) Calibrate(raw float64) float64 {
	c.mu.Lock()
	f := c.factor
	c.mu.Unlock()
	v := raw * f
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (c *ConfidenceCalibrator) recalc() {
	if len(c.predictions) < calibratorMinSamples {
		return
	}
	predictedSum, correct := 0.0, 0
	for _, p := range c.predictions {
		predictedSum += p.predicted
		if p.correct {
			correct++
		}
	}
	predictedAvg := predictedSum / float64(len(c.predictions))
	actualAvg := float64(correct) / float64(len(c.predictions))
	if predictedAvg > 0 {
		f := actualAvg / predictedAvg
		if f < calibratorMinFactor {
			f = calibratorMinFactor
		}
		if f > calibratorMaxFactor {
			f = calibratorMaxFactor
		}
		c.factor = f
	}
}

func (c *ConfidenceCalibrator) IsOverconfident() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.factor < 0.9
}

func (c *ConfidenceCalibrator) IsUnderconfident() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.factor > 1.1
}

func (c *ConfidenceCalibrator) Factor() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.factor
}
