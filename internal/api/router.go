package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/companion/internal/api/handlers"
	mw "github.com/Harshitk-cp/companion/internal/api/middleware"
	"github.com/Harshitk-cp/companion/internal/buildconfig"
	"github.com/Harshitk-cp/companion/internal/config"
	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/Harshitk-cp/companion/internal/embedding"
	"github.com/Harshitk-cp/companion/internal/llm"
	"github.com/Harshitk-cp/companion/internal/service"
	"github.com/Harshitk-cp/companion/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	rateLimitCleanupInterval = 5 * time.Minute
	rateLimitIdleAge         = 10 * time.Minute
)

// App holds the router and background workers for lifecycle management.
type App struct {
	Router       *chi.Mux
	Janitor      *service.SessionJanitor
	limiter      *mw.RateLimiter
	metrics      *mw.MetricsCollector
	stopCh       chan struct{}
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(svcs *Services, cfg *config.Config, logger *zap.Logger) *App {
	sessionHandler := handlers.NewSessionHandler(svcs.Sessions, logger)
	memoryHandler := handlers.NewMemoryHandler(svcs.Memories)
	activityHandler := handlers.NewActivityHandler(svcs.Schedule)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Janitor:   svcs.Janitor,
		limiter:   mw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		stopCh:    make(chan struct{}),
		startTime: time.Now(),
	}
	app.metrics = mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(app.limiter.Handler)

	r.Get("/health", healthHandler(svcs.Health))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(cfg.APIKey))

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Reset)
			r.Post("/turns", sessionHandler.Turn)
		})

		r.Route("/memories", func(r chi.Router) {
			r.Post("/", memoryHandler.Create)
			r.Get("/search", memoryHandler.Search)
		})

		r.Get("/activity", activityHandler.Get)
	})

	return app
}

// Start launches the session janitor and rate limiter eviction.
func (app *App) Start() {
	if app.Janitor != nil {
		app.Janitor.Start()
	}
	go app.limiter.RunCleanup(rateLimitCleanupInterval, rateLimitIdleAge, app.stopCh)
}

func (app *App) Stop() {
	close(app.stopCh)
	if app.Janitor != nil {
		app.Janitor.Stop()
	}
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		resp := map[string]string{"status": "ok"}
		for k, v := range buildconfig.VersionInfo() {
			resp[k] = v
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds":    uptime.Seconds(),
			"uptime_human":      uptime.Round(time.Second).String(),
			"request_count":     app.requestCount.Load(),
			"error_count":       app.errorCount.Load(),
			"routes":            app.metrics.RouteCounts(),
			"tracked_client_ip": app.limiter.Len(),
			"goroutines":        runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.VectorIndex     = (*store.ChromemIndex)(nil)
	_ domain.VectorIndex     = (*store.PGVectorIndex)(nil)
	_ domain.SessionStore    = (*store.SessionStore)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.EmbeddingClient = (*embedding.CachedClient)(nil)
	_ domain.LLMClient       = (*llm.Client)(nil)
	_ domain.LLMClient       = (*llm.MockClient)(nil)
	_ Pinger                 = (*store.SessionStore)(nil)
)
