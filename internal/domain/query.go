package domain

import "time"

type ExpansionStrategy string

const (
	StrategySynonym    ExpansionStrategy = "synonym"
	StrategyRelated    ExpansionStrategy = "related"
	StrategySpecific   ExpansionStrategy = "specific"
	StrategyBroad      ExpansionStrategy = "broad"
	StrategyTemporal   ExpansionStrategy = "temporal"
	StrategyContextual ExpansionStrategy = "contextual"
)

// ParseExpansionStrategy validates a strategy string at the API edge.
// An empty string defaults to synonym expansion; anything else must be
// one of the known strategies.
func ParseExpansionStrategy(s string) (ExpansionStrategy, bool) {
	if s == "" {
		return StrategySynonym, true
	}
	switch ExpansionStrategy(s) {
	case StrategySynonym, StrategyRelated, StrategySpecific,
		StrategyBroad, StrategyTemporal, StrategyContextual:
		return ExpansionStrategy(s), true
	}
	return "", false
}

type GapType string

const (
	GapMissingData GapType = "missing_data"
	GapIncomplete  GapType = "incomplete"
	GapNoNumbers   GapType = "no_numbers"
	GapNoSource    GapType = "no_source"
	GapVague       GapType = "vague"
	GapOutdated    GapType = "outdated"
)

// ExpandedQuery is the result of a single expansion pass. It is created
// fresh per call and never mutated afterwards.
type ExpandedQuery struct {
	Original     string            `json:"original"`
	Expanded     string            `json:"expanded"`
	Strategy     ExpansionStrategy `json:"strategy"`
	AddedTerms   []string          `json:"added_terms,omitempty"`
	RemovedTerms []string          `json:"removed_terms,omitempty"`
	Confidence   float64           `json:"confidence"`
	Iteration    int               `json:"iteration"`
}

// Changed reports whether the expansion actually rewrote the query.
func (q ExpandedQuery) Changed() bool {
	return q.Expanded != q.Original
}

// InformationGap is a detected category of missing information in an
// answer relative to its query.
type InformationGap struct {
	Type           GapType `json:"type"`
	Description    string  `json:"description"`
	SuggestedQuery string  `json:"suggested_query,omitempty"`
	Priority       float64 `json:"priority"`
}

// RefinementStep records one iteration of the refinement loop.
type RefinementStep struct {
	Iteration        int              `json:"iteration"`
	Query            string           `json:"query"`
	GapsFound        []InformationGap `json:"gaps,omitempty"`
	ConfidenceBefore float64          `json:"confidence_before"`
	ConfidenceAfter  float64          `json:"confidence_after"`
	Timestamp        time.Time        `json:"timestamp"`
}

// ConfidenceDelta is the measured improvement for this step. Until the
// caller observes a new confidence the delta is zero, not negative.
func (s RefinementStep) ConfidenceDelta() float64 {
	return s.ConfidenceAfter - s.ConfidenceBefore
}
