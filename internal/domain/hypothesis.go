package domain

import (
	"fmt"
	"time"
)

type HypothesisStatus string

const (
	HypothesisPending   HypothesisStatus = "pending"
	HypothesisChecking  HypothesisStatus = "checking"
	HypothesisConfirmed HypothesisStatus = "confirmed"
	HypothesisRefuted   HypothesisStatus = "refuted"
	HypothesisUncertain HypothesisStatus = "uncertain"
	HypothesisError     HypothesisStatus = "error"
)

// Terminal reports whether the status is one of the four end states.
// Terminal states are reachable only from checking and never reversed.
func (s HypothesisStatus) Terminal() bool {
	switch s {
	case HypothesisConfirmed, HypothesisRefuted, HypothesisUncertain, HypothesisError:
		return true
	}
	return false
}

// Hypothesis is an independently verifiable claim tracked through a
// verification lifecycle: pending -> checking -> terminal.
type Hypothesis struct {
	ID              string           `json:"id"`
	Statement       string           `json:"statement"`
	Sources         []string         `json:"sources,omitempty"`
	Status          HypothesisStatus `json:"status"`
	Confidence      float64          `json:"confidence"`
	EvidenceFor     []string         `json:"evidence_for,omitempty"`
	EvidenceAgainst []string         `json:"evidence_against,omitempty"`
	CheckResult     string           `json:"check_result,omitempty"`
	CheckedAt       *time.Time       `json:"checked_at,omitempty"`
}

func (h Hypothesis) IsChecked() bool {
	return h.Status.Terminal()
}

// NewHypotheses builds pending hypotheses from a list of claims, with
// sequential ids matching the input order.
func NewHypotheses(claims []string, sources []string) []Hypothesis {
	out := make([]Hypothesis, 0, len(claims))
	for i, claim := range claims {
		out = append(out, Hypothesis{
			ID:        fmt.Sprintf("h_%d", i+1),
			Statement: claim,
			Sources:   sources,
			Status:    HypothesisPending,
		})
	}
	return out
}

// ParallelResult is the write-once record of one completed unit of
// parallel work.
type ParallelResult struct {
	TaskID     string  `json:"task_id"`
	Success    bool    `json:"success"`
	Result     any     `json:"result,omitempty"`
	Error      string  `json:"error,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// HypothesisSummary aggregates a checked batch. AvgConfidence is the
// mean over all hypotheses, checked or not.
type HypothesisSummary struct {
	Total         int     `json:"total"`
	Confirmed     int     `json:"confirmed"`
	Refuted       int     `json:"refuted"`
	Uncertain     int     `json:"uncertain"`
	Errors        int     `json:"errors"`
	AvgConfidence float64 `json:"avg_confidence"`
}
