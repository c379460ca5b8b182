package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pds-ultimate/research/internal/domain"
)

type ResearchStore struct {
	db *pgxpool.Pool
}

func NewResearchStore(db *pgxpool.Pool) *ResearchStore {
	return &ResearchStore{db: db}
}

func (s *ResearchStore) Create(ctx context.Context, r *domain.ResearchRecord) error {
	var embedding *pgvector.Vector
	if len(r.Embedding) > 0 {
		v := pgvector.NewVector(r.Embedding)
		embedding = &v
	}

	if r.EmbeddingModel == "" && embedding != nil {
		r.EmbeddingModel = "text-embedding-3-small"
	}

	steps, err := json.Marshal(r.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	hypotheses, err := json.Marshal(r.Hypotheses)
	if err != nil {
		return fmt.Errorf("marshal hypotheses: %w", err)
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO research_records (query, answer, confidence, level, iterations, source_count, steps, hypotheses, embedding, embedding_model, total_duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		r.Query, r.Answer, r.Confidence, r.Level, r.Iterations, r.SourceCount, steps, hypotheses, embedding, r.EmbeddingModel, r.TotalDurationMS,
	).Scan(&r.ID, &r.CreatedAt)
}

func (s *ResearchStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ResearchRecord, error) {
	r := &domain.ResearchRecord{}
	var steps, hypotheses []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, query, answer, confidence, level, iterations, source_count, steps, hypotheses, embedding_model, total_duration_ms, created_at
		 FROM research_records WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Query, &r.Answer, &r.Confidence, &r.Level, &r.Iterations, &r.SourceCount, &steps, &hypotheses, &r.EmbeddingModel, &r.TotalDurationMS, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := unmarshalParts(r, steps, hypotheses); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ResearchStore) ListRecent(ctx context.Context, limit int) ([]domain.ResearchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, query, answer, confidence, level, iterations, source_count, steps, hypotheses, embedding_model, total_duration_ms, created_at
		 FROM research_records
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent query: %w", err)
	}
	defer rows.Close()

	var records []domain.ResearchRecord
	for rows.Next() {
		var r domain.ResearchRecord
		var steps, hypotheses []byte
		if err := rows.Scan(&r.ID, &r.Query, &r.Answer, &r.Confidence, &r.Level, &r.Iterations, &r.SourceCount, &steps, &hypotheses, &r.EmbeddingModel, &r.TotalDurationMS, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalParts(&r, steps, hypotheses); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Recall finds past research by embedding similarity, best match first.
func (s *ResearchStore) Recall(ctx context.Context, embedding []float32, opts domain.RecallOpts) ([]domain.ResearchWithScore, error) {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}

	vec := pgvector.NewVector(embedding)

	rows, err := s.db.Query(ctx,
		`SELECT id, query, answer, confidence, level, iterations, source_count, steps, hypotheses, embedding_model, total_duration_ms, created_at,
		        1 - (embedding <=> $1) AS score
		 FROM research_records
		 WHERE embedding IS NOT NULL AND confidence >= $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		vec, opts.MinConfidence, opts.TopK,
	)
	if err != nil {
		return nil, fmt.Errorf("recall query: %w", err)
	}
	defer rows.Close()

	var results []domain.ResearchWithScore
	for rows.Next() {
		var r domain.ResearchWithScore
		var steps, hypotheses []byte
		if err := rows.Scan(&r.ID, &r.Query, &r.Answer, &r.Confidence, &r.Level, &r.Iterations, &r.SourceCount, &steps, &hypotheses, &r.EmbeddingModel, &r.TotalDurationMS, &r.CreatedAt, &r.Score); err != nil {
			return nil, err
		}
		if err := unmarshalParts(&r.ResearchRecord, steps, hypotheses); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func unmarshalParts(r *domain.ResearchRecord, steps, hypotheses []byte) error {
	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &r.Steps); err != nil {
			return fmt.Errorf("unmarshal steps: %w", err)
		}
	}
	if len(hypotheses) > 0 {
		if err := json.Unmarshal(hypotheses, &r.Hypotheses); err != nil {
			return fmt.Errorf("unmarshal hypotheses: %w", err)
		}
	}
	return nil
}
