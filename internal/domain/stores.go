package domain

import (
	"context"

	"github.com/google/uuid"
)

type RecallOpts struct {
	TopK          int
	MinConfidence float64
}

type ResearchStore interface {
	Create(ctx context.Context, r *ResearchRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ResearchRecord, error)
	ListRecent(ctx context.Context, limit int) ([]ResearchRecord, error)
	Recall(ctx context.Context, embedding []float32, opts RecallOpts) ([]ResearchWithScore, error)
}

// Answer is what the LLM backend returns for a search query. Sources are
// whatever corroborating references the backend surfaced; their count
// feeds the confidence estimator.
type Answer struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources,omitempty"`
}

// LLMClient is the seam to the completion backend. Retry policy and
// timeouts belong to the implementation, not to callers.
type LLMClient interface {
	Answer(ctx context.Context, query, contextText string) (*Answer, error)
	ExtractClaims(ctx context.Context, answer string) ([]string, error)
	VerifyHypothesis(ctx context.Context, h Hypothesis) (Hypothesis, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
