package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/immo-leads/internal/infra/http/handlers"
	"github.com/xavierca1/immo-leads/internal/infra/http/middleware"
	"github.com/xavierca1/immo-leads/internal/infra/http/security"
)

type Handlers struct {
	Lead    *handlers.LeadHandler
	DevEcho *handlers.DevEchoHandler
	Health  *handlers.HealthHandler
}

type Options struct {
	AllowedOrigins []string
	Logger         *zap.Logger
}

func New(h Handlers, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", security.CSRFHeaderName},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/submit", h.Lead.IssueToken)
	r.Post("/api/submit", h.Lead.Submit)
	r.Post("/api/webhook", h.DevEcho.Handle)

	r.Get("/health", h.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
