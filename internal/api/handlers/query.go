package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pds-ultimate/research/internal/domain"
	"github.com/pds-ultimate/research/internal/service"
)

// QueryHandler handles query expansion and optimization endpoints.
type QueryHandler struct {
	expander  *service.QueryExpander
	optimizer *service.QueryOptimizer
}

func NewQueryHandler(expander *service.QueryExpander, optimizer *service.QueryOptimizer) *QueryHandler {
	return &QueryHandler{expander: expander, optimizer: optimizer}
}

type expandRequest struct {
	Query         string   `json:"query"`
	Strategy      string   `json:"strategy,omitempty"`
	Strategies    []string `json:"strategies,omitempty"`
	Context       string   `json:"context,omitempty"`
	MaxExpansions int      `json:"max_expansions,omitempty"`
}

// Expand handles POST /v1/queries/expand. With a strategies list it
// runs a multi-strategy pass; otherwise a single strategy (default
// synonym).
func (h *QueryHandler) Expand(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	if len(req.Strategies) > 0 {
		strategies := make([]domain.ExpansionStrategy, 0, len(req.Strategies))
		for _, s := range req.Strategies {
			strategy, ok := domain.ParseExpansionStrategy(s)
			if !ok {
				writeError(w, http.StatusBadRequest, "unknown strategy: "+s)
				return
			}
			strategies = append(strategies, strategy)
		}
		results := h.expander.ExpandMulti(req.Query, strategies, req.Context)
		writeJSON(w, http.StatusOK, map[string]any{"expansions": results})
		return
	}

	strategy, ok := domain.ParseExpansionStrategy(req.Strategy)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown strategy: "+req.Strategy)
		return
	}

	result := h.expander.Expand(req.Query, strategy, req.Context, req.MaxExpansions)
	writeJSON(w, http.StatusOK, result)
}

type optimizeRequest struct {
	Query string `json:"query"`
}

type optimizeResponse struct {
	Original     string   `json:"original"`
	Optimized    string   `json:"optimized"`
	KeyTerms     []string `json:"key_terms,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Optimize handles POST /v1/queries/optimize.
func (h *QueryHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	writeJSON(w, http.StatusOK, optimizeResponse{
		Original:     req.Query,
		Optimized:    h.optimizer.Optimize(req.Query),
		KeyTerms:     h.optimizer.ExtractKeyTerms(req.Query),
		Alternatives: h.optimizer.SuggestAlternatives(req.Query),
	})
}
