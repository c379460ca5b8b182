package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pds-ultimate/research/internal/domain"
	"github.com/pds-ultimate/research/internal/parallel"
	"github.com/pds-ultimate/research/internal/service"
	"github.com/pds-ultimate/research/internal/store"
)

// MaxBatchQueries caps how many queries one batch request may carry.
const MaxBatchQueries = 10

// ResearchHandler handles research pipeline endpoints.
type ResearchHandler struct {
	researchService *service.ResearchService
	runner          *parallel.Runner
}

func NewResearchHandler(rs *service.ResearchService, runner *parallel.Runner) *ResearchHandler {
	return &ResearchHandler{researchService: rs, runner: runner}
}

type runResearchRequest struct {
	Query   string `json:"query"`
	Context string `json:"context,omitempty"`
}

// Run handles POST /v1/research.
func (h *ResearchHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	record, err := h.researchService.Run(r.Context(), req.Query, req.Context)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type batchResearchRequest struct {
	Queries []string `json:"queries"`
	Context string   `json:"context,omitempty"`
}

// RunBatch handles POST /v1/research/batch. Queries run concurrently
// under the runner's pool; one failing query does not fail the batch.
func (h *ResearchHandler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req batchResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, "queries are required")
		return
	}
	if len(req.Queries) > MaxBatchQueries {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d queries per batch", MaxBatchQueries))
		return
	}

	tasks := make(map[string]parallel.TaskFunc, len(req.Queries))
	for i, q := range req.Queries {
		if q == "" {
			writeError(w, http.StatusBadRequest, "queries must not be empty")
			return
		}
		query := q
		tasks[fmt.Sprintf("q_%d", i+1)] = func(ctx context.Context) (any, error) {
			return h.researchService.Run(ctx, query, req.Context)
		}
	}

	results := h.runner.RunAll(r.Context(), tasks, parallel.CategoryGeneral)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// GetByID handles GET /v1/research/{id}.
func (h *ResearchHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid research id")
		return
	}

	record, err := h.researchService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "research not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// List handles GET /v1/research.
func (h *ResearchHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.researchService.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"research": records})
}

// Recall handles GET /v1/research/recall?query=...
func (h *ResearchHandler) Recall(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	opts := domain.RecallOpts{}
	if topK, err := strconv.Atoi(r.URL.Query().Get("top_k")); err == nil {
		opts.TopK = topK
	}
	if minConf, err := strconv.ParseFloat(r.URL.Query().Get("min_confidence"), 64); err == nil {
		opts.MinConfidence = minConf
	}

	results, err := h.researchService.RecallSimilar(r.Context(), query, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
