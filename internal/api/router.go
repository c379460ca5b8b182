package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pds-ultimate/research/internal/api/handlers"
	mw "github.com/pds-ultimate/research/internal/api/middleware"
	"github.com/pds-ultimate/research/internal/buildconfig"
	"github.com/pds-ultimate/research/internal/config"
	"github.com/pds-ultimate/research/internal/domain"
	"github.com/pds-ultimate/research/internal/embedding"
	"github.com/pds-ultimate/research/internal/llm"
	"github.com/pds-ultimate/research/internal/parallel"
	"github.com/pds-ultimate/research/internal/service"
	"github.com/pds-ultimate/research/internal/store"
)

// App holds the router and shared state for lifecycle management.
type App struct {
	Router       *chi.Mux
	Concurrency  *parallel.ConcurrencyManager
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	researchStore := store.NewResearchStore(db)

	// External clients via provider factory
	var embeddingClient domain.EmbeddingClient
	var llmClient domain.LLMClient

	llmProvider := config.LLMProvider()
	embeddingProvider := config.EmbeddingProvider()

	var err error
	llmClient, err = llm.NewClient(llmProvider, config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed", zap.String("provider", llmProvider), zap.Error(err))
		llmClient = llm.NewMockClient()
	} else {
		logger.Info("LLM client initialized", zap.String("provider", llmProvider))
	}

	embeddingClient, err = embedding.NewClient(embeddingProvider, config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("Embedding client initialization failed", zap.String("provider", embeddingProvider), zap.Error(err))
		embeddingClient = embedding.NewMockClient()
	} else {
		logger.Info("Embedding client initialized", zap.String("provider", embeddingProvider))
	}

	// Concurrency control for the hypothesis checker
	manager := parallel.NewConcurrencyManager(
		config.MaxConcurrent(),
		config.MaxLLMConcurrent(),
		config.MaxBrowserConcurrent(),
	)
	checker := parallel.NewHypothesisChecker(manager, logger)

	// Batch research fans out on its own pool; nested checker
	// acquisitions on a shared manager can deadlock.
	batchRunner := parallel.NewRunner(parallel.NewConcurrencyManager(
		config.MaxConcurrent(),
		config.MaxLLMConcurrent(),
		config.MaxBrowserConcurrent(),
	), logger)

	// Services
	expander := service.NewQueryExpander()
	optimizer := service.NewQueryOptimizer(expander)
	analyzer := service.NewGapAnalyzer()
	estimator := service.NewConfidenceEstimator()
	tracker := service.NewUncertaintyTracker(service.DefaultMaxHistory, logger)
	trigger := service.NewAutoSearchTrigger(service.DefaultAutoSearchThreshold, config.MaxIterations())
	researchSvc := service.NewResearchService(
		llmClient, embeddingClient, researchStore,
		estimator, analyzer, expander, optimizer,
		tracker, trigger, checker,
		service.ResearchServiceOpts{
			MaxIterations:    config.MaxIterations(),
			TargetConfidence: config.TargetConfidence(),
		},
		logger,
	)

	// Handlers
	researchHandler := handlers.NewResearchHandler(researchSvc, batchRunner)
	queryHandler := handlers.NewQueryHandler(expander, optimizer)
	confidenceHandler := handlers.NewConfidenceHandler(estimator, analyzer, tracker, trigger)
	hypothesisHandler := handlers.NewHypothesisHandler(checker, llmClient)

	r := chi.NewRouter()

	app := &App{
		Router:      r,
		Concurrency: manager,
		startTime:   time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health
	r.Get("/health", healthHandler(db))

	// Metrics
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		// Research pipeline
		r.Route("/research", func(r chi.Router) {
			r.Post("/", researchHandler.Run)
			r.Post("/batch", researchHandler.RunBatch)
			r.Get("/", researchHandler.List)
			r.Get("/recall", researchHandler.Recall)
			r.Get("/{id}", researchHandler.GetByID)
		})

		// Query tooling
		r.Route("/queries", func(r chi.Router) {
			r.Post("/expand", queryHandler.Expand)
			r.Post("/optimize", queryHandler.Optimize)
		})

		// Answer diagnostics
		r.Post("/answers/gaps", confidenceHandler.AnalyzeGaps)

		// Confidence estimation
		r.Route("/confidence", func(r chi.Router) {
			r.Post("/", confidenceHandler.Estimate)
			r.Get("/stats", confidenceHandler.Stats)
		})

		// Hypothesis verification
		r.Post("/hypotheses/check", hypothesisHandler.Check)
	})

	return app
}

// NewRouter returns just the chi.Mux for callers that do not need the App.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"concurrency": map[string]any{
				"active": app.Concurrency.Active(),
				"peak":   app.Concurrency.Peak(),
			},
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"build":      buildconfig.VersionInfo(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.ResearchStore   = (*store.ResearchStore)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.LLMClient       = (*llm.DeepSeekClient)(nil)
	_ domain.LLMClient       = (*llm.MockClient)(nil)
)
