package service

import (
	"strings"

	"github.com/pds-ultimate/research/internal/domain"
)

const (
	SourceCountSaturation   = 5.0  // sources at or above this count as full coverage
	SourceCountFloor        = 0.1  // factor floor when zero sources
	HedgeWordPenalty        = 0.05
	StrongWordBonus         = 0.03
	MinTextPenalty          = 0.5
	MaxTextPenalty          = 1.1
	EmptyTextPenalty        = 0.9
	LowAgreementThreshold   = 0.5
	LowFreshnessThreshold   = 0.3
	LowSpecificityThreshold = 0.3
	LowEvidenceThreshold    = 0.3
)

// FactorWeights are the fixed contributions of each confidence factor.
// They must sum to exactly 1.0.
var FactorWeights = map[string]float64{
	"source_count":      0.20,
	"source_agreement":  0.25,
	"data_freshness":    0.15,
	"query_specificity": 0.15,
	"evidence_strength": 0.25,
}

var hedgingWords = []string{
	"возможно", "вероятно", "может быть", "предположительно",
	"не уверен", "perhaps", "maybe", "probably", "might",
	"uncertain", "unclear", "не ясно", "трудно сказать",
	"ориентировочно", "приблизительно", "примерно",
}

var strongWords = []string{
	"точно", "однозначно", "определённо", "exactly",
	"definitely", "certainly", "подтверждено", "verified",
	"доказано", "proved",
}

// EstimateInput carries the externally supplied confidence signals.
// Out-of-range values are clamped, never rejected.
type EstimateInput struct {
	Text             string
	SourceCount      int
	SourceAgreement  float64
	DataFreshness    float64
	QuerySpecificity float64
	EvidenceStrength float64
	CustomFactors    map[string]float64
}

// ConfidenceEstimator computes a weighted multi-factor confidence score
// for a candidate answer.
type ConfidenceEstimator struct{}

func NewConfidenceEstimator() *ConfidenceEstimator {
	return &ConfidenceEstimator{}
}

func (e *ConfidenceEstimator) Estimate(in EstimateInput) domain.ConfidenceScore {
	factors := map[string]float64{
		"source_agreement":  clamp01(in.SourceAgreement),
		"data_freshness":    clamp01(in.DataFreshness),
		"query_specificity": clamp01(in.QuerySpecificity),
		"evidence_strength": clamp01(in.EvidenceStrength),
	}
	if in.SourceCount > 0 {
		factors["source_count"] = clamp01(float64(in.SourceCount) / SourceCountSaturation)
	} else {
		factors["source_count"] = SourceCountFloor
	}
	for k, v := range in.CustomFactors {
		factors[k] = v
	}

	weighted := 0.0
	for name, w := range FactorWeights {
		v, ok := factors[name]
		if !ok {
			v = 0.5
		}
		weighted += v * w
	}

	final := weighted * textPenalty(in.Text)

	// Uncertainty flags come from the raw inputs, not the weighted factors.
	var uncertainties []domain.UncertaintyType
	if in.SourceCount == 0 {
		uncertainties = append(uncertainties, domain.UncertaintyDataMissing)
	}
	if in.SourceAgreement < LowAgreementThreshold {
		uncertainties = append(uncertainties, domain.UncertaintyConflictingSources)
	}
	if in.DataFreshness < LowFreshnessThreshold {
		uncertainties = append(uncertainties, domain.UncertaintyOutdatedInfo)
	}
	if in.QuerySpecificity < LowSpecificityThreshold {
		uncertainties = append(uncertainties, domain.UncertaintyAmbiguousQuery)
	}
	if in.EvidenceStrength < LowEvidenceThreshold {
		uncertainties = append(uncertainties, domain.UncertaintyInsufficientEvidence)
	}

	return domain.NewConfidenceScore(final, factors, uncertainties, e.explain(factors))
}

func (e *ConfidenceEstimator) explain(factors map[string]float64) string {
	var parts []string
	if factors["source_count"] < 0.4 {
		parts = append(parts, "мало источников")
	}
	if factors["source_agreement"] < 0.5 {
		parts = append(parts, "источники расходятся")
	}
	if factors["data_freshness"] < 0.5 {
		parts = append(parts, "данные могут быть устаревшими")
	}
	if len(parts) == 0 {
		parts = append(parts, "достаточно данных")
	}
	return strings.Join(parts, "; ")
}

// textPenalty turns hedging and assertive wording into a score
// multiplier clamped to [0.5, 1.1].
func textPenalty(text string) float64 {
	if text == "" {
		return EmptyTextPenalty
	}
	lower := strings.ToLower(text)
	hedges, strongs := 0, 0
	for _, w := range hedgingWords {
		if strings.Contains(lower, w) {
			hedges++
		}
	}
	for _, w := range strongWords {
		if strings.Contains(lower, w) {
			strongs++
		}
	}
	penalty := 1.0 - float64(hedges)*HedgeWordPenalty + float64(strongs)*StrongWordBonus
	if penalty < MinTextPenalty {
		return MinTextPenalty
	}
	if penalty > MaxTextPenalty {
		return MaxTextPenalty
	}
	return penalty
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
