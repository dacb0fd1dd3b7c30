package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/augurhq/augur/internal/api/handlers"
	mw "github.com/augurhq/augur/internal/api/middleware"
	"github.com/augurhq/augur/internal/config"
	"github.com/augurhq/augur/internal/domain"
	"github.com/augurhq/augur/internal/service"
	"github.com/augurhq/augur/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and the background observer worker for lifecycle
// management.
type App struct {
	Router   *chi.Mux
	Observer *service.ObserverService
	Engine   *service.Engine

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	entryStore := store.NewEntryStore(db)
	hypStore := store.NewHypothesisStore(db)

	// Services
	calc := service.NewCalculator()
	engine := service.NewEngine(calc, logger)
	observer := service.NewObserver(logger)
	observer.Alpha = config.SignificanceLevel()

	observerSvc := service.NewObserverService(entryStore, observer, engine, logger)
	observerSvc.SetHypothesisStore(hypStore)
	observerSvc.SetLookbackDays(config.LookbackDays())
	observerSvc.SetInterval(time.Duration(config.ObserverIntervalHours()) * time.Hour)

	exchangeSvc := service.NewExchangeService(engine, logger)

	// Handlers
	hypothesisHandler := handlers.NewHypothesisHandler(engine, hypStore, logger)
	patternHandler := handlers.NewPatternHandler(observerSvc)
	observerHandler := handlers.NewObserverHandler(observerSvc, exchangeSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Observer:  observerSvc,
		Engine:    engine,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logging(logger))
	r.Use(metricsCollector.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Route("/hypotheses", func(r chi.Router) {
			r.Get("/", hypothesisHandler.List)
			r.Post("/", hypothesisHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", hypothesisHandler.GetByID)
				r.Post("/confirm", hypothesisHandler.Confirm)
				r.Post("/reject", hypothesisHandler.Reject)
			})
		})

		r.Route("/patterns", func(r chi.Router) {
			r.Get("/", patternHandler.List)
			r.Get("/{index}", patternHandler.GetByIndex)
		})

		r.Post("/observer/run", observerHandler.Run)
		r.Post("/exchange", observerHandler.Exchange)
	})

	return app
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
			"uptime_seconds":     uptime.Seconds(),
			"uptime_human":       uptime.Round(time.Second).String(),
			"request_count":      app.requestCount.Load(),
			"error_count":        app.errorCount.Load(),
			"goroutines":         runtime.NumGoroutine(),
			"hypotheses_total":   len(app.Engine.All()),
			"hypotheses_active":  len(app.Engine.Active()),
			"go_version":         runtime.Version(),
			"memory_alloc_bytes": memStats.Alloc,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores satisfy the domain interfaces at compile time.
var (
	_ domain.EntrySource     = (*store.EntryStore)(nil)
	_ domain.HypothesisStore = (*store.HypothesisStore)(nil)
)
