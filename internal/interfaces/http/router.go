package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/dockview/internal/interfaces/http/handlers"
	"github.com/turtacn/dockview/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree. Nil handlers leave their routes unmounted.
type RouterConfig struct {
	SessionHandler *handlers.SessionHandler
	LigandHandler  *handlers.LigandHandler
	HealthHandler  *handlers.HealthHandler

	CORS *middleware.CORSConfig
	// DockingLimiter guards the rescore and dock endpoints.
	DockingLimiter middleware.RateLimiter

	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	Metrics          middleware.RequestObserver
}

// NewRouter builds the DockView route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	logCfg := middleware.DefaultLoggingConfig()
	logCfg.Observer = cfg.Metrics
	r.Use(middleware.RequestLogging(cfg.Logger, logCfg))

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerSessionRoutes(api, cfg.SessionHandler, cfg.DockingLimiter)
		registerLigandRoutes(api, cfg.LigandHandler)
	})

	return r
}

// registerSessionRoutes mounts the session resource under /sessions.
func registerSessionRoutes(r chi.Router, h *handlers.SessionHandler, limiter middleware.RateLimiter) {
	if h == nil {
		return
	}
	r.Route("/sessions", func(sr chi.Router) {
		sr.Post("/", h.Create)

		sr.Route("/{sessionID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Delete("/", h.Delete)
			item.Put("/protein", h.LoadProtein)
			item.Put("/ligands", h.LoadLigands)
			item.Post("/navigate", h.Navigate)
			item.Post("/sort", h.Sort)
			item.Put("/site", h.SetSite)
			item.Get("/view", h.View)

			item.Group(func(dock chi.Router) {
				if limiter != nil {
					dock.Use(middleware.RateLimit(limiter))
				}
				dock.Post("/rescore", h.Rescore)
				dock.Post("/dock", h.Dock)
			})
		})
	})
}

// registerLigandRoutes mounts the stateless endpoints.
func registerLigandRoutes(r chi.Router, h *handlers.LigandHandler) {
	if h == nil {
		return
	}
	r.Post("/ligands/extract", h.Extract)
	r.Get("/environment", h.Environment)
	r.Get("/presets", h.Presets)
}
