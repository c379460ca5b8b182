package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pds-ultimate/research/internal/domain"
	"github.com/pds-ultimate/research/internal/parallel"
)

// HypothesisHandler handles parallel hypothesis verification.
type HypothesisHandler struct {
	checker *parallel.HypothesisChecker
	llm     domain.LLMClient
}

func NewHypothesisHandler(checker *parallel.HypothesisChecker, llm domain.LLMClient) *HypothesisHandler {
	return &HypothesisHandler{checker: checker, llm: llm}
}

type checkHypothesesRequest struct {
	Claims  []string `json:"claims"`
	Sources []string `json:"sources,omitempty"`
}

type checkHypothesesResponse struct {
	Hypotheses []domain.Hypothesis      `json:"hypotheses"`
	Summary    domain.HypothesisSummary `json:"summary"`
}

// Check handles POST /v1/hypotheses/check.
func (h *HypothesisHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkHypothesesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Claims) == 0 {
		writeError(w, http.StatusBadRequest, "claims are required")
		return
	}

	hypotheses := domain.NewHypotheses(req.Claims, req.Sources)
	checked := h.checker.CheckAll(r.Context(), hypotheses, func(ctx context.Context, hyp domain.Hypothesis) (domain.Hypothesis, error) {
		return h.llm.VerifyHypothesis(ctx, hyp)
	})

	writeJSON(w, http.StatusOK, checkHypothesesResponse{
		Hypotheses: checked,
		Summary:    parallel.Summarize(checked),
	})
}
