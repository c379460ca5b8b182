package service

import (
	"testing"

	"github.com/pds-ultimate/research/internal/domain"
	"go.uber.org/zap"
)

func TestTrackerAveragesAndRates(t *testing.T) {
	tr := NewUncertaintyTracker(10, zap.NewNop())

	if got := tr.AverageConfidence(); got != 0.5 {
		t.Errorf("empty tracker average = %v, want 0.5", got)
	}

	tr.Track(domain.NewConfidenceScore(0.8, nil, nil, ""))
	tr.Track(domain.NewConfidenceScore(0.4, nil, nil, ""))
	tr.Track(domain.NewConfidenceScore(0.6, nil, nil, ""))

	if got := tr.AverageConfidence(); got < 0.59 || got > 0.61 {
		t.Errorf("average = %v, want ~0.6", got)
	}
	// One of three below 0.5
	if got := tr.LowConfidenceRate(); got < 0.33 || got > 0.34 {
		t.Errorf("low confidence rate = %v, want ~1/3", got)
	}
}

func TestTrackerTruncatesHistory(t *testing.T) {
	tr := NewUncertaintyTracker(10, zap.NewNop())

	for i := 0; i < 15; i++ {
		tr.Track(domain.NewConfidenceScore(0.5, nil, nil, ""))
	}
	if got := tr.Stats().TotalTracked; got > 10 {
		t.Errorf("history length = %d, want at most cap", got)
	}
}

func TestTrackerCountsUncertainties(t *testing.T) {
	tr := NewUncertaintyTracker(100, zap.NewNop())

	tr.Track(domain.NewConfidenceScore(0.4, nil, []domain.UncertaintyType{domain.UncertaintyDataMissing}, ""))
	tr.Track(domain.NewConfidenceScore(0.4, nil, []domain.UncertaintyType{domain.UncertaintyDataMissing, domain.UncertaintyOutdatedInfo}, ""))

	common := tr.MostCommonUncertainties(5)
	if len(common) != 2 {
		t.Fatalf("expected 2 uncertainty types, got %d", len(common))
	}
	if common[0].Type != domain.UncertaintyDataMissing || common[0].Count != 2 {
		t.Errorf("top uncertainty = %+v, want data_missing x2", common[0])
	}
}

func TestActionEffectiveness(t *testing.T) {
	tr := NewUncertaintyTracker(100, zap.NewNop())

	tr.RecordOutcome(domain.ActionExpandQuery, true, 0.4, 0.7)
	tr.RecordOutcome(domain.ActionExpandQuery, false, 0.4, 0.4)

	eff := tr.ActionEffectiveness()
	e, ok := eff[domain.ActionExpandQuery]
	if !ok {
		t.Fatal("expected expand_query entry")
	}
	if e.Count != 2 || e.SuccessRate != 0.5 {
		t.Errorf("effectiveness = %+v, want count 2 rate 0.5", e)
	}
	if e.AvgImprovement < 0.149 || e.AvgImprovement > 0.151 {
		t.Errorf("avg improvement = %v, want ~0.15", e.AvgImprovement)
	}
}

func TestAutoSearchTrigger(t *testing.T) {
	trg := NewAutoSearchTrigger(0.7, 3)

	low := domain.NewConfidenceScore(0.4, nil, []domain.UncertaintyType{domain.UncertaintyDataMissing}, "")
	high := domain.NewConfidenceScore(0.9, nil, nil, "")

	if !trg.ShouldSearch(low) {
		t.Error("low score should trigger search")
	}
	if trg.ShouldSearch(high) {
		t.Error("high score should not trigger search")
	}

	plan := trg.SearchPlan(low, 0)
	if plan == nil {
		t.Fatal("expected a plan for a low score")
	}
	if plan.Action != domain.ActionFullResearch {
		t.Errorf("plan action = %v, want full_research", plan.Action)
	}
	if plan.Iteration != 1 {
		t.Errorf("plan iteration = %d, want 1", plan.Iteration)
	}

	if trg.SearchPlan(low, 3) != nil {
		t.Error("exhausted iterations should yield no plan")
	}
	if trg.SearchPlan(high, 0) != nil {
		t.Error("high score should yield no plan")
	}
	if trg.TriggersFired() != 1 {
		t.Errorf("triggers fired = %d, want 1", trg.TriggersFired())
	}
}

func TestCalibrator(t *testing.T) {
	c := NewConfidenceCalibrator()

	if got := c.Calibrate(0.6); got != 0.6 {
		t.Errorf("fresh calibrator should pass through, got %v", got)
	}

	// Consistently overconfident: predicted 0.9, only 30% correct.
	for i := 0; i < 20; i++ {
		c.Record(0.9, i%10 < 3)
	}
	if !c.IsOverconfident() {
		t.Errorf("factor = %v, expected overconfident", c.Factor())
	}
	if got := c.Calibrate(0.9); got >= 0.9 {
		t.Errorf("calibrated value %v should be below raw", got)
	}

	// Factor never leaves its clamp range.
	if f := c.Factor(); f < 0.5 || f > 1.5 {
		t.Errorf("factor %v out of [0.5, 1.5]", f)
	}
}
