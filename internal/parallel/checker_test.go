package parallel

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pds-ultimate/research/internal/domain"
	"go.uber.org/zap"
)

func TestCheckAllSurvivesFailures(t *testing.T) {
	checker := NewHypothesisChecker(NewConcurrencyManager(3, 3, 3), zap.NewNop())

	hypotheses := domain.NewHypotheses([]string{
		"claim one", "claim two", "claim three", "claim four", "claim five",
	}, nil)

	results := checker.CheckAll(context.Background(), hypotheses, func(ctx context.Context, h domain.Hypothesis) (domain.Hypothesis, error) {
		if h.ID == "h_3" {
			return h, errors.New("verification backend unavailable")
		}
		h.Status = domain.HypothesisConfirmed
		h.Confidence = 0.8
		return h, nil
	})

	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}

	// Input order preserved.
	for i, r := range results {
		wantID := fmt.Sprintf("h_%d", i+1)
		if r.ID != wantID {
			t.Errorf("result[%d].ID = %s, want %s", i, r.ID, wantID)
		}
	}

	if results[2].Status != domain.HypothesisError {
		t.Errorf("failed check status = %v, want error", results[2].Status)
	}
	if results[2].CheckResult == "" {
		t.Error("errored hypothesis should carry the failure message")
	}
	for i, r := range results {
		if i == 2 {
			continue
		}
		if r.Status != domain.HypothesisConfirmed {
			t.Errorf("result[%d].Status = %v, want confirmed", i, r.Status)
		}
		if r.CheckedAt == nil {
			t.Errorf("result[%d] missing checked_at", i)
		}
	}
}

func TestCheckAllForcesTerminalStatus(t *testing.T) {
	checker := NewHypothesisChecker(NewConcurrencyManager(2, 2, 2), zap.NewNop())

	hypotheses := domain.NewHypotheses([]string{"vague claim"}, nil)
	results := checker.CheckAll(context.Background(), hypotheses, func(ctx context.Context, h domain.Hypothesis) (domain.Hypothesis, error) {
		// Callback forgets to set a terminal status.
		return h, nil
	})

	if !results[0].Status.Terminal() {
		t.Errorf("status = %v, want a terminal status", results[0].Status)
	}
	if results[0].Status != domain.HypothesisUncertain {
		t.Errorf("non-terminal callback result should become uncertain, got %v", results[0].Status)
	}
}

func TestSummarize(t *testing.T) {
	hs := []domain.Hypothesis{
		{Status: domain.HypothesisConfirmed, Confidence: 0.9},
		{Status: domain.HypothesisConfirmed, Confidence: 0.7},
		{Status: domain.HypothesisRefuted, Confidence: 0.8},
		{Status: domain.HypothesisUncertain, Confidence: 0.4},
		{Status: domain.HypothesisError, Confidence: 0},
	}

	s := Summarize(hs)
	if s.Total != 5 || s.Confirmed != 2 || s.Refuted != 1 || s.Uncertain != 1 || s.Errors != 1 {
		t.Errorf("summary counts = %+v", s)
	}
	// Average over all five, errored included.
	want := (0.9 + 0.7 + 0.8 + 0.4 + 0) / 5
	if s.AvgConfidence < want-1e-9 || s.AvgConfidence > want+1e-9 {
		t.Errorf("avg confidence = %v, want %v", s.AvgConfidence, want)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.AvgConfidence != 0 {
		t.Errorf("empty summary = %+v, want zeros", s)
	}
}
