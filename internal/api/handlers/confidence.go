package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pds-ultimate/research/internal/service"
)

// ConfidenceHandler handles confidence estimation and gap analysis.
type ConfidenceHandler struct {
	estimator *service.ConfidenceEstimator
	analyzer  *service.GapAnalyzer
	tracker   *service.UncertaintyTracker
	trigger   *service.AutoSearchTrigger
}

func NewConfidenceHandler(estimator *service.ConfidenceEstimator, analyzer *service.GapAnalyzer, tracker *service.UncertaintyTracker, trigger *service.AutoSearchTrigger) *ConfidenceHandler {
	return &ConfidenceHandler{
		estimator: estimator,
		analyzer:  analyzer,
		tracker:   tracker,
		trigger:   trigger,
	}
}

type estimateRequest struct {
	Text             string             `json:"text"`
	SourceCount      int                `json:"source_count"`
	SourceAgreement  float64            `json:"source_agreement"`
	DataFreshness    float64            `json:"data_freshness"`
	QuerySpecificity float64            `json:"query_specificity"`
	EvidenceStrength float64            `json:"evidence_strength"`
	CustomFactors    map[string]float64 `json:"custom_factors,omitempty"`
	Iteration        int                `json:"iteration"`
}

// Estimate handles POST /v1/confidence. The score is tracked and a
// follow-up search plan returned when one applies.
func (h *ConfidenceHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	score := h.estimator.Estimate(service.EstimateInput{
		Text:             req.Text,
		SourceCount:      req.SourceCount,
		SourceAgreement:  req.SourceAgreement,
		DataFreshness:    req.DataFreshness,
		QuerySpecificity: req.QuerySpecificity,
		EvidenceStrength: req.EvidenceStrength,
		CustomFactors:    req.CustomFactors,
	})
	h.tracker.Track(score)

	resp := map[string]any{"score": score}
	if plan := h.trigger.SearchPlan(score, req.Iteration); plan != nil {
		resp["search_plan"] = plan
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /v1/confidence/stats.
func (h *ConfidenceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.tracker.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"tracker":              stats,
		"common_uncertainties": h.tracker.MostCommonUncertainties(5),
		"action_effectiveness": h.tracker.ActionEffectiveness(),
		"triggers_fired":       h.trigger.TriggersFired(),
	})
}

type gapsRequest struct {
	Query       string  `json:"query"`
	Answer      string  `json:"answer"`
	SourceCount int     `json:"source_count"`
	Confidence  float64 `json:"confidence"`
}

// AnalyzeGaps handles POST /v1/answers/gaps.
func (h *ConfidenceHandler) AnalyzeGaps(w http.ResponseWriter, r *http.Request) {
	var req gapsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	gaps := h.analyzer.Analyze(req.Query, req.Answer, req.SourceCount, req.Confidence)
	writeJSON(w, http.StatusOK, map[string]any{"gaps": gaps})
}
