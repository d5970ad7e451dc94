package rest

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/calloway-legal/caseflow/internal/api/rest/handlers"
	customMiddleware "github.com/calloway-legal/caseflow/internal/api/rest/middleware"
	"github.com/calloway-legal/caseflow/pkg/config"
	"github.com/calloway-legal/caseflow/pkg/logger"
	"github.com/calloway-legal/caseflow/pkg/metrics"
)

// Router holds the HTTP router and dependencies
type Router struct {
	router   *chi.Mux
	logger   *logger.Logger
	handlers *handlers.Handlers
	metrics  *metrics.Metrics
	config   *config.ServerConfig
}

// NewRouter creates a new HTTP router
func NewRouter(log *logger.Logger, h *handlers.Handlers, m *metrics.Metrics, cfg *config.ServerConfig) *Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(customMiddleware.Metrics(m))

	allowedOrigins := []string{"http://localhost:3000"}
	if originsEnv := os.Getenv("ALLOWED_ORIGINS"); originsEnv != "" {
		allowedOrigins = strings.Split(originsEnv, ",")
		for i := range allowedOrigins {
			allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
		}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", customMiddleware.TenantHeader},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	return &Router{
		router:   r,
		logger:   log,
		handlers: h,
		metrics:  m,
		config:   cfg,
	}
}

// SetupRoutes configures all API routes
func (r *Router) SetupRoutes() {
	r.router.Handle("/metrics", r.metrics.Handler())

	r.router.Get("/health", r.handlers.Health.Health)
	r.router.Get("/ready", r.handlers.Health.Ready)

	r.router.Route("/api/v1", func(router chi.Router) {
		router.Use(customMiddleware.TenantContext())
		router.Use(customMiddleware.RateLimitWithConfig(r.config.RateLimitRPS, r.config.RateLimitBurst, r.logger))

		router.Route("/rules", func(router chi.Router) {
			router.Get("/", r.handlers.Rule.List)
			router.Post("/", r.handlers.Rule.Create)
			router.Get("/{id}", r.handlers.Rule.Get)
			router.Put("/{id}", r.handlers.Rule.Update)
			router.Delete("/{id}", r.handlers.Rule.Delete)
			router.Post("/{id}/test", r.handlers.Rule.Test)
		})

		router.Route("/events", func(router chi.Router) {
			router.Post("/", r.handlers.Event.EmitEvent)
		})
	})
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r.router
}
