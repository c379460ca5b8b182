package domain

import "time"

type ConfidenceLevel string

const (
	LevelVeryHigh ConfidenceLevel = "very_high" // > 0.9
	LevelHigh     ConfidenceLevel = "high"      // 0.7 - 0.9
	LevelMedium   ConfidenceLevel = "medium"    // 0.5 - 0.7
	LevelLow      ConfidenceLevel = "low"       // 0.3 - 0.5
	LevelVeryLow  ConfidenceLevel = "very_low"  // < 0.3
)

type UncertaintyType string

const (
	UncertaintyDataMissing          UncertaintyType = "data_missing"
	UncertaintyConflictingSources   UncertaintyType = "conflicting"
	UncertaintyOutdatedInfo         UncertaintyType = "outdated"
	UncertaintyAmbiguousQuery       UncertaintyType = "ambiguous"
	UncertaintyLowSourceTrust       UncertaintyType = "low_trust"
	UncertaintyInsufficientEvidence UncertaintyType = "insufficient"
	UncertaintyModel                UncertaintyType = "model"
)

// SearchAction is what the system should do next about a low-confidence answer.
type SearchAction string

const (
	ActionNone         SearchAction = "none"
	ActionExpandQuery  SearchAction = "expand_query"
	ActionAddSources   SearchAction = "add_sources"
	ActionVerifyFacts  SearchAction = "verify_facts"
	ActionFullResearch SearchAction = "full_research"
)

// ConfidenceScore carries a confidence value together with the factors
// that produced it. Level and SuggestedAction are derived from Value and
// Uncertainties by NewConfidenceScore and must never be set independently;
// treat the struct as immutable after construction.
type ConfidenceScore struct {
	Value           float64            `json:"value"`
	Level           ConfidenceLevel    `json:"level"`
	Factors         map[string]float64 `json:"factors,omitempty"`
	Uncertainties   []UncertaintyType  `json:"uncertainties,omitempty"`
	SuggestedAction SearchAction       `json:"suggested_action"`
	Explanation     string             `json:"explanation,omitempty"`
	Timestamp       time.Time          `json:"timestamp"`
}

// NewConfidenceScore clamps value into [0,1] and computes both derived
// fields atomically. Any adjustment to the value (e.g. calibration) must
// go through this constructor again.
func NewConfidenceScore(value float64, factors map[string]float64, uncertainties []UncertaintyType, explanation string) ConfidenceScore {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	return ConfidenceScore{
		Value:           value,
		Level:           levelFor(value),
		Factors:         factors,
		Uncertainties:   uncertainties,
		SuggestedAction: actionFor(value, uncertainties),
		Explanation:     explanation,
		Timestamp:       time.Now(),
	}
}

func levelFor(value float64) ConfidenceLevel {
	switch {
	case value > 0.9:
		return LevelVeryHigh
	case value > 0.7:
		return LevelHigh
	case value > 0.5:
		return LevelMedium
	case value > 0.3:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

// actionFor picks the next action, first match wins.
func actionFor(value float64, uncertainties []UncertaintyType) SearchAction {
	if value > 0.7 {
		return ActionNone
	}
	if hasUncertainty(uncertainties, UncertaintyDataMissing) {
		return ActionFullResearch
	}
	if hasUncertainty(uncertainties, UncertaintyConflictingSources) {
		return ActionVerifyFacts
	}
	if hasUncertainty(uncertainties, UncertaintyOutdatedInfo) {
		return ActionAddSources
	}
	if value < 0.3 {
		return ActionFullResearch
	}
	return ActionExpandQuery
}

func hasUncertainty(list []UncertaintyType, u UncertaintyType) bool {
	for _, x := range list {
		if x == u {
			return true
		}
	}
	return false
}

// NeedsAdditionalSearch reports whether the score is below the default
// auto-search threshold.
func (s ConfidenceScore) NeedsAdditionalSearch() bool {
	return s.Value < 0.7
}
