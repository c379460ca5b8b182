package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pds-ultimate/research/internal/domain"
	"github.com/pds-ultimate/research/internal/embedding"
	"github.com/pds-ultimate/research/internal/llm"
	"github.com/pds-ultimate/research/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockResearchStore struct {
	created    []*domain.ResearchRecord
	createErr  error
	recallOpts domain.RecallOpts
	recallOut  []domain.ResearchWithScore
}

func (m *mockResearchStore) Create(ctx context.Context, r *domain.ResearchRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, r)
	return nil
}

func (m *mockResearchStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ResearchRecord, error) {
	for _, r := range m.created {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockResearchStore) ListRecent(ctx context.Context, limit int) ([]domain.ResearchRecord, error) {
	out := make([]domain.ResearchRecord, 0, len(m.created))
	for _, r := range m.created {
		out = append(out, *r)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockResearchStore) Recall(ctx context.Context, embedding []float32, opts domain.RecallOpts) ([]domain.ResearchWithScore, error) {
	m.recallOpts = opts
	return m.recallOut, nil
}

func newTestResearchService(llmClient *llm.MockClient, embedder *embedding.MockClient, store *mockResearchStore, opts ResearchServiceOpts) *ResearchService {
	logger := zap.NewNop()
	expander := NewQueryExpander()
	return NewResearchService(
		llmClient,
		embedder,
		store,
		NewConfidenceEstimator(),
		NewGapAnalyzer(),
		expander,
		NewQueryOptimizer(expander),
		NewUncertaintyTracker(100, logger),
		NewAutoSearchTrigger(0.7, 3),
		parallel.NewHypothesisChecker(parallel.NewConcurrencyManager(3, 2, 2), logger),
		opts,
		logger,
	)
}

func TestRunStopsWhenConfident(t *testing.T) {
	llmClient := llm.NewMockClient()
	llmClient.AnswerResponse = &domain.Answer{
		Text:    "Официальный курс доллара к манату составляет 3.5, подтверждено данными центрального банка за август.",
		Sources: []string{"s1", "s2", "s3", "s4", "s5"},
	}
	llmClient.ExtractClaimsResponse = []string{
		"курс доллара к манату 3.5",
		"данные центрального банка",
	}
	embedder := embedding.NewMockClient()
	store := &mockResearchStore{}

	svc := newTestResearchService(llmClient, embedder, store, ResearchServiceOpts{})

	record, err := svc.Run(context.Background(), "какой сейчас курс доллара США к туркменскому манату на рынке", "")
	require.NoError(t, err)
	require.NotNil(t, record)

	// A confident first answer ends the loop without refinement.
	assert.Equal(t, 1, record.Iterations)
	assert.Len(t, llmClient.AnswerCalls, 1)
	assert.Empty(t, record.Steps)
	assert.GreaterOrEqual(t, record.Confidence, 0.8)
	assert.Equal(t, 5, record.SourceCount)

	// Both claims were verified in parallel.
	require.Len(t, record.Hypotheses, 2)
	assert.Len(t, llmClient.VerifyCalls, 2)
	for _, h := range record.Hypotheses {
		assert.Equal(t, domain.HypothesisConfirmed, h.Status)
		assert.NotNil(t, h.CheckedAt)
	}

	// Persisted with an embedding over the query and answer text.
	require.Len(t, store.created, 1)
	assert.Len(t, record.Embedding, 1536)
	require.Len(t, embedder.EmbedCalls, 1)
	assert.Contains(t, embedder.EmbedCalls[0], record.Answer)
}

func TestRunIteratesUntilCap(t *testing.T) {
	llmClient := llm.NewMockClient()
	llmClient.AnswerResponse = &domain.Answer{
		Text: "Возможно, приблизительно так, но трудно сказать без данных.",
	}
	embedder := embedding.NewMockClient()
	store := &mockResearchStore{}

	svc := newTestResearchService(llmClient, embedder, store, ResearchServiceOpts{
		MaxIterations: 2,
	})

	record, err := svc.Run(context.Background(), "цена товара", "")
	require.NoError(t, err)

	// Two refinements, three answers.
	assert.Len(t, llmClient.AnswerCalls, 3)
	assert.Equal(t, 3, record.Iterations)
	require.Len(t, record.Steps, 2)
	assert.Less(t, record.Confidence, 0.8)

	// Refined queries diverge from the literal original.
	assert.NotEqual(t, llmClient.AnswerCalls[0], llmClient.AnswerCalls[1])

	// Each step's outcome was back-filled from the next estimate: the
	// refined query scores higher than the vague first answer, and the
	// last step's outcome is the final confidence.
	for _, step := range record.Steps {
		assert.NotEmpty(t, step.GapsFound)
	}
	assert.Greater(t, record.Steps[0].ConfidenceAfter, record.Steps[0].ConfidenceBefore)
	assert.InDelta(t, record.Confidence, record.Steps[1].ConfidenceAfter, 1e-9)
}

func TestRunSurvivesPersistenceFailures(t *testing.T) {
	llmClient := llm.NewMockClient()
	embedder := embedding.NewMockClient()
	embedder.EmbedError = errors.New("embedding service down")
	store := &mockResearchStore{createErr: errors.New("db down")}

	svc := newTestResearchService(llmClient, embedder, store, ResearchServiceOpts{MaxIterations: 1})

	record, err := svc.Run(context.Background(), "курс маната", "")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Nil(t, record.Embedding)
	assert.Empty(t, store.created)
}

func TestRunPropagatesAnswerFailure(t *testing.T) {
	llmClient := llm.NewMockClient()
	llmClient.AnswerError = errors.New("backend timeout")

	svc := newTestResearchService(llmClient, embedding.NewMockClient(), &mockResearchStore{}, ResearchServiceOpts{})

	_, err := svc.Run(context.Background(), "курс маната", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer query")
}

func TestRunDegradesOnClaimExtractionFailure(t *testing.T) {
	llmClient := llm.NewMockClient()
	llmClient.ExtractClaimsError = errors.New("malformed response")

	svc := newTestResearchService(llmClient, embedding.NewMockClient(), &mockResearchStore{}, ResearchServiceOpts{MaxIterations: 1})

	record, err := svc.Run(context.Background(), "курс маната", "")
	require.NoError(t, err)
	assert.Empty(t, record.Hypotheses)
}

func TestRunCapsClaimCount(t *testing.T) {
	llmClient := llm.NewMockClient()
	llmClient.ExtractClaimsResponse = []string{"a", "b", "c", "d", "e", "f", "g"}

	svc := newTestResearchService(llmClient, embedding.NewMockClient(), &mockResearchStore{}, ResearchServiceOpts{MaxIterations: 1})

	record, err := svc.Run(context.Background(), "курс маната", "")
	require.NoError(t, err)
	assert.Len(t, record.Hypotheses, maxClaimsPerAnswer)
}

func TestRecallSimilarAppliesDefaults(t *testing.T) {
	store := &mockResearchStore{
		recallOut: []domain.ResearchWithScore{
			{ResearchRecord: domain.ResearchRecord{Query: "старый запрос"}, Score: 0.91},
		},
	}
	svc := newTestResearchService(llm.NewMockClient(), embedding.NewMockClient(), store, ResearchServiceOpts{})

	out, err := svc.RecallSimilar(context.Background(), "курс доллара", domain.RecallOpts{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, DefaultRecallTopK, store.recallOpts.TopK)
	assert.Equal(t, DefaultRecallMinConfidence, store.recallOpts.MinConfidence)
}
