package service

import (
	"math"
	"testing"

	"github.com/pds-ultimate/research/internal/domain"
)

func TestFactorWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range FactorWeights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("factor weights sum to %v, want 1.0", sum)
	}
}

func TestEstimateClampsOutOfRangeInputs(t *testing.T) {
	e := NewConfidenceEstimator()

	score := e.Estimate(EstimateInput{
		Text:             "Точные данные подтверждены.",
		SourceCount:      3,
		SourceAgreement:  5.0,
		DataFreshness:    0.5,
		QuerySpecificity: 0.5,
		EvidenceStrength: -3.0,
	})
	if score.Factors["source_agreement"] != 1.0 {
		t.Errorf("source_agreement = %v, want clamped to 1.0", score.Factors["source_agreement"])
	}
	if score.Factors["evidence_strength"] != 0.0 {
		t.Errorf("evidence_strength = %v, want clamped to 0.0", score.Factors["evidence_strength"])
	}
	if score.Value < 0 || score.Value > 1 {
		t.Errorf("final value %v out of [0,1]", score.Value)
	}
}

func TestEstimateSourceCountFactor(t *testing.T) {
	e := NewConfidenceEstimator()

	tests := []struct {
		name    string
		sources int
		want    float64
	}{
		{"zero sources hits the floor", 0, SourceCountFloor},
		{"one source", 1, 0.2},
		{"saturates at five", 5, 1.0},
		{"beyond saturation clamps", 10, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := e.Estimate(EstimateInput{SourceCount: tt.sources, Text: "x"})
			if math.Abs(score.Factors["source_count"]-tt.want) > 1e-9 {
				t.Errorf("source_count factor = %v, want %v", score.Factors["source_count"], tt.want)
			}
		})
	}
}

func TestEstimateHedgingPenalty(t *testing.T) {
	e := NewConfidenceEstimator()
	base := EstimateInput{
		SourceCount:      3,
		SourceAgreement:  0.8,
		DataFreshness:    0.8,
		QuerySpecificity: 0.8,
		EvidenceStrength: 0.8,
	}

	neutral := base
	neutral.Text = "Ставка составляет 12 процентов годовых."
	hedged := base
	hedged.Text = "Возможно ставка составляет примерно 12 процентов, но это не точно, вероятно меняется."
	confident := base
	confident.Text = "Ставка точно составляет 12 процентов, это подтверждено банком."

	n := e.Estimate(neutral).Value
	h := e.Estimate(hedged).Value
	c := e.Estimate(confident).Value

	if h >= n {
		t.Errorf("hedged %v should score below neutral %v", h, n)
	}
	if c <= n {
		t.Errorf("confident %v should score above neutral %v", c, n)
	}
}

func TestTextPenaltyBounds(t *testing.T) {
	if got := textPenalty(""); got != EmptyTextPenalty {
		t.Errorf("empty text penalty = %v, want %v", got, EmptyTextPenalty)
	}

	// Stack every hedge word; the multiplier must not fall below the floor.
	allHedges := ""
	for _, w := range hedgingWords {
		allHedges += w + " "
	}
	if got := textPenalty(allHedges); got != MinTextPenalty {
		t.Errorf("heavily hedged penalty = %v, want floor %v", got, MinTextPenalty)
	}

	allStrong := ""
	for _, w := range strongWords {
		allStrong += w + " "
	}
	if got := textPenalty(allStrong); got != MaxTextPenalty {
		t.Errorf("maximally assertive penalty = %v, want cap %v", got, MaxTextPenalty)
	}
}

func TestEstimateUncertaintyFlags(t *testing.T) {
	e := NewConfidenceEstimator()

	score := e.Estimate(EstimateInput{
		Text:             "Данные отсутствуют.",
		SourceCount:      0,
		SourceAgreement:  0.2,
		DataFreshness:    0.1,
		QuerySpecificity: 0.1,
		EvidenceStrength: 0.1,
	})

	want := []domain.UncertaintyType{
		domain.UncertaintyDataMissing,
		domain.UncertaintyConflictingSources,
		domain.UncertaintyOutdatedInfo,
		domain.UncertaintyAmbiguousQuery,
		domain.UncertaintyInsufficientEvidence,
	}
	if len(score.Uncertainties) != len(want) {
		t.Fatalf("uncertainties = %v, want %v", score.Uncertainties, want)
	}
	for i, u := range want {
		if score.Uncertainties[i] != u {
			t.Errorf("uncertainty[%d] = %v, want %v", i, score.Uncertainties[i], u)
		}
	}
}

func TestEstimateMissingFactorDefaults(t *testing.T) {
	e := NewConfidenceEstimator()

	// Custom factors can shadow a weighted factor; removing one must not
	// zero its contribution.
	score := e.Estimate(EstimateInput{
		Text:        "Ответ со ссылками на 3 источника.",
		SourceCount: 3,
		CustomFactors: map[string]float64{
			"region_match": 0.9,
		},
	})
	if _, ok := score.Factors["region_match"]; !ok {
		t.Error("custom factor should be carried through")
	}
	if score.Value <= 0 {
		t.Errorf("score should be positive, got %v", score.Value)
	}
}
