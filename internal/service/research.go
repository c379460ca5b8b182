package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pds-ultimate/research/internal/domain"
	"github.com/pds-ultimate/research/internal/parallel"
	"go.uber.org/zap"
)

const (
	DefaultRecallTopK          = 5
	DefaultRecallMinConfidence = 0.3
	maxClaimsPerAnswer         = 5
)

// ResearchService runs the full research pipeline: answer, estimate,
// refine until good enough, verify the claims in parallel, persist.
type ResearchService struct {
	llm       domain.LLMClient
	embedder  domain.EmbeddingClient
	store     domain.ResearchStore
	estimator *ConfidenceEstimator
	analyzer  *GapAnalyzer
	expander  *QueryExpander
	optimizer *QueryOptimizer
	tracker   *UncertaintyTracker
	trigger   *AutoSearchTrigger
	checker   *parallel.HypothesisChecker
	logger    *zap.Logger

	maxIterations    int
	targetConfidence float64
}

type ResearchServiceOpts struct {
	MaxIterations    int
	TargetConfidence float64
}

func NewResearchService(
	llm domain.LLMClient,
	embedder domain.EmbeddingClient,
	store domain.ResearchStore,
	estimator *ConfidenceEstimator,
	analyzer *GapAnalyzer,
	expander *QueryExpander,
	optimizer *QueryOptimizer,
	tracker *UncertaintyTracker,
	trigger *AutoSearchTrigger,
	checker *parallel.HypothesisChecker,
	opts ResearchServiceOpts,
	logger *zap.Logger,
) *ResearchService {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.TargetConfidence <= 0 {
		opts.TargetConfidence = DefaultTargetConfidence
	}
	return &ResearchService{
		llm:              llm,
		embedder:         embedder,
		store:            store,
		estimator:        estimator,
		analyzer:         analyzer,
		expander:         expander,
		optimizer:        optimizer,
		tracker:          tracker,
		trigger:          trigger,
		checker:          checker,
		logger:           logger,
		maxIterations:    opts.MaxIterations,
		targetConfidence: opts.TargetConfidence,
	}
}

// Run executes the adaptive research loop for a query and persists the
// completed record. A store failure does not discard the answer; the
// record comes back with the error logged.
func (s *ResearchService) Run(ctx context.Context, query, contextText string) (*domain.ResearchRecord, error) {
	start := time.Now()
	// Each run gets its own loop so histories never bleed across requests.
	loop := NewRefinementLoop(s.maxIterations, s.targetConfidence, s.analyzer, s.expander, s.logger)

	currentQuery := s.optimizer.Optimize(query)
	var (
		answer *domain.Answer
		score  domain.ConfidenceScore
		err    error
	)

	iteration := 0
	for {
		answer, err = s.llm.Answer(ctx, currentQuery, contextText)
		if err != nil {
			return nil, fmt.Errorf("answer query: %w", err)
		}

		score = s.estimator.Estimate(EstimateInput{
			Text:             answer.Text,
			SourceCount:      len(answer.Sources),
			SourceAgreement:  0.7,
			DataFreshness:    0.5,
			QuerySpecificity: querySpecificity(currentQuery),
			EvidenceStrength: evidenceStrength(answer),
		})
		s.tracker.Track(score)
		// The step appended by the previous cycle's RefineQuery carries
		// the previous iteration number.
		if iteration > 0 {
			loop.ObserveConfidence(iteration-1, score.Value)
		}

		gaps := s.analyzer.Analyze(query, answer.Text, len(answer.Sources), score.Value)
		if !loop.ShouldContinue(iteration, score.Value, gaps) {
			break
		}

		if plan := s.trigger.SearchPlan(score, iteration); plan != nil {
			s.logger.Debug("auto search triggered",
				zap.String("action", string(plan.Action)),
				zap.Int("iteration", plan.Iteration))
		}

		next, _ := loop.RefineQuery(query, answer.Text, len(answer.Sources), score.Value, iteration, contextText)
		currentQuery = next
		iteration++
	}

	hypotheses := s.verifyClaims(ctx, answer)

	record := &domain.ResearchRecord{
		ID:              uuid.New(),
		Query:           query,
		Answer:          answer.Text,
		Confidence:      score.Value,
		Level:           score.Level,
		Iterations:      iteration + 1,
		SourceCount:     len(answer.Sources),
		Steps:           loop.History(),
		Hypotheses:      hypotheses,
		TotalDurationMS: float64(time.Since(start).Microseconds()) / 1000,
		CreatedAt:       time.Now(),
	}

	if emb, embErr := s.embedder.Embed(ctx, query+"\n"+answer.Text); embErr != nil {
		s.logger.Warn("embedding failed, storing without vector", zap.Error(embErr))
	} else {
		record.Embedding = emb
	}

	if storeErr := s.store.Create(ctx, record); storeErr != nil {
		s.logger.Error("failed to persist research record", zap.Error(storeErr))
	}

	s.logger.Info("research completed",
		zap.String("research_id", record.ID.String()),
		zap.Float64("confidence", record.Confidence),
		zap.Int("iterations", record.Iterations),
		zap.Int("hypotheses", len(hypotheses)))
	return record, nil
}

// verifyClaims extracts claims from the final answer and checks them in
// parallel. Extraction failure degrades to no hypotheses, not a failed run.
func (s *ResearchService) verifyClaims(ctx context.Context, answer *domain.Answer) []domain.Hypothesis {
	claims, err := s.llm.ExtractClaims(ctx, answer.Text)
	if err != nil {
		s.logger.Warn("claim extraction failed", zap.Error(err))
		return nil
	}
	if len(claims) > maxClaimsPerAnswer {
		claims = claims[:maxClaimsPerAnswer]
	}
	if len(claims) == 0 {
		return nil
	}

	hypotheses := domain.NewHypotheses(claims, answer.Sources)
	return s.checker.CheckAll(ctx, hypotheses, func(ctx context.Context, h domain.Hypothesis) (domain.Hypothesis, error) {
		return s.llm.VerifyHypothesis(ctx, h)
	})
}

func (s *ResearchService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ResearchRecord, error) {
	return s.store.GetByID(ctx, id)
}

func (s *ResearchService) ListRecent(ctx context.Context, limit int) ([]domain.ResearchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListRecent(ctx, limit)
}

// RecallSimilar finds past research semantically close to the query.
func (s *ResearchService) RecallSimilar(ctx context.Context, query string, opts domain.RecallOpts) ([]domain.ResearchWithScore, error) {
	if opts.TopK <= 0 {
		opts.TopK = DefaultRecallTopK
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultRecallMinConfidence
	}
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.store.Recall(ctx, emb, opts)
}

// querySpecificity approximates how constrained a query is from its
// word count.
func querySpecificity(query string) float64 {
	words := len(strings.Fields(query))
	switch {
	case words >= 8:
		return 0.9
	case words >= 5:
		return 0.7
	case words >= 3:
		return 0.5
	default:
		return 0.3
	}
}

// evidenceStrength is a crude proxy until verification runs: sourced
// answers count as stronger evidence.
func evidenceStrength(answer *domain.Answer) float64 {
	switch {
	case len(answer.Sources) >= 3:
		return 0.8
	case len(answer.Sources) > 0:
		return 0.6
	default:
		return 0.4
	}
}
