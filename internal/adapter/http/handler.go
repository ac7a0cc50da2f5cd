package httpadapter

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"creator-outreach/internal/core/port"
	"creator-outreach/internal/metrics"
)

// HealthCheck probes one dependency for GET /health. A nil error means the
// dependency is healthy.
type HealthCheck func(ctx context.Context) error

// Handler contains dependencies and routes. It is an inbound adapter for
// HTTP that translates requests into calls on the outreach and catalog use
// cases and maps domain errors to status codes. Routes are registered on a
// chi.Router for convenient method handling.
type Handler struct {
	outreach       port.OutreachUseCase
	catalog        port.CatalogUseCase
	logger         *slog.Logger
	router         chi.Router
	allowedOrigins []string
	testEndpoints  bool
	checks         map[string]HealthCheck
}

type Option func(*Handler)

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) { h.allowedOrigins = origins }
}

// WithTestEndpoints exposes the simulate-inbound endpoint. When off the
// route answers 403.
func WithTestEndpoints(enabled bool) Option {
	return func(h *Handler) { h.testEndpoints = enabled }
}

// WithHealthCheck adds a named dependency probe to GET /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) { h.checks[name] = check }
}

// NewHandler creates a handler with all routes configured.
func NewHandler(outreach port.OutreachUseCase, catalog port.CatalogUseCase, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		outreach: outreach,
		catalog:  catalog,
		logger:   logger,
		checks:   make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	if len(h.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}

	r.Get("/health", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/influencers", func(r chi.Router) {
			r.Post("/", h.handleCreateInfluencer)
			r.Get("/", h.handleListInfluencers)
			r.Get("/{id}", h.handleGetInfluencer)
			r.Patch("/{id}", h.handleRefreshProfile)
		})
		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", h.handleCreateCampaign)
			r.Get("/", h.handleListCampaigns)
			r.Get("/{id}", h.handleGetCampaign)
		})
		r.Route("/threads", func(r chi.Router) {
			r.Post("/", h.handleCreateThread)
			r.Post("/bulk", h.handleCreateThreads)
			r.Get("/", h.handleListThreads)
			r.Get("/{id}", h.handleGetThread)
			r.Get("/{id}/messages", h.handleListMessages)
			r.Post("/{id}/draft", h.handleRequestDraft)
			r.Post("/{id}/followup", h.handleRequestFollowUp)
			r.Post("/{id}/simulate_inbound", h.handleSimulateInbound)
		})
		r.Route("/messages", func(r chi.Router) {
			r.Get("/{id}", h.handleGetMessage)
			r.Post("/{id}/approve", h.handleApprove)
			r.Post("/{id}/send", h.handleSend)
		})
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}
