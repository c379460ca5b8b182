package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResearchRecord is a completed research run: the final answer plus the
// trail of refinement steps and the verified hypotheses that support it.
type ResearchRecord struct {
	ID              uuid.UUID        `json:"id"`
	Query           string           `json:"query"`
	Answer          string           `json:"answer"`
	Confidence      float64          `json:"confidence"`
	Level           ConfidenceLevel  `json:"level"`
	Iterations      int              `json:"iterations"`
	SourceCount     int              `json:"source_count"`
	Steps           []RefinementStep `json:"steps,omitempty"`
	Hypotheses      []Hypothesis     `json:"hypotheses,omitempty"`
	Embedding       []float32        `json:"-"`
	EmbeddingModel  string           `json:"embedding_model,omitempty"`
	TotalDurationMS float64          `json:"total_duration_ms"`
	CreatedAt       time.Time        `json:"created_at"`
}

type ResearchWithScore struct {
	ResearchRecord
	Score float32 `json:"score"`
}
