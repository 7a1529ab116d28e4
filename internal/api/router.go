// Package api provides the HTTP API for the provider health monitor.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/providerpulse/providerpulse/internal/api/handler"
	"github.com/providerpulse/providerpulse/internal/api/middleware"
	"github.com/providerpulse/providerpulse/internal/auth"
	"github.com/providerpulse/providerpulse/internal/notify"
	"github.com/providerpulse/providerpulse/internal/resilience"
	"github.com/providerpulse/providerpulse/internal/watch"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version      string
	BuildTime    string
	Logger       zerolog.Logger
	ServiceName  string
	Metrics      *middleware.Metrics
	TokenService *auth.TokenService
	Watcher      *watch.Watcher
	StateStore   *watch.StateStore
	History      *notify.History
	Registry     *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "providerpulse-monitor"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Watcher, cfg.StateStore, cfg.Registry)
	providerHandler := handler.NewProviderHandler(cfg.Watcher)
	notificationHandler := handler.NewNotificationHandler(cfg.History)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.TokenService)

	// Create rate limit middleware for different endpoint categories
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min
	adminRateLimit := middleware.RateLimitByOperator(middleware.AdminRateLimit) // 30 req/min
	pollRateLimit := middleware.RateLimitByOperator(middleware.PollRateLimit)   // 10 req/min

	// Probe endpoints (public, unthrottled so orchestrators never get 429s)
	r.Get("/healthz", opsHandler.HealthCheck)
	r.Get("/readyz", opsHandler.ReadinessCheck)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Read endpoints (public) - standard rate limiting
		r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
		r.With(standardRateLimit).Get("/providers", providerHandler.ListProviders)
		r.With(standardRateLimit).Get("/notifications", notificationHandler.ListNotifications)

		// Admin endpoints (authenticated) - operator-based rate limiting
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminRateLimit)
			r.Use(middleware.RequireJSON)

			r.Post("/providers/{name}/mute", providerHandler.MuteProvider)
			r.Delete("/providers/{name}/mute", providerHandler.UnmuteProvider)

			// Manual polls hit the upstream health source, so keep them rare
			r.With(pollRateLimit).Post("/poll", opsHandler.TriggerPoll)
		})
	})

	return r
}
