// Package api provides the HTTP API for AirAware.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/internal/api/handler"
	"github.com/ratheesh-17/airaware/internal/api/middleware"
	"github.com/ratheesh-17/airaware/internal/exposure"
	"github.com/ratheesh-17/airaware/internal/quota"
	"github.com/ratheesh-17/airaware/internal/station"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	Exposure    *exposure.Service
	Stations    *station.Service
	Guard       *quota.Guard
	// Providers are listed on the quota endpoint; Critical marks the ones
	// whose exhaustion disables prediction.
	Providers []string
	Critical  []string
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "airaware-api"
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
	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Guard:     cfg.Guard,
		Providers: cfg.Providers,
		Critical:  cfg.Critical,
	})
	predictHandler := handler.NewPredictHandler(cfg.Exposure)
	metadataHandler := handler.NewMetadataHandler(cfg.Stations)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/quota", opsHandler.QuotaStatus)
		})

		// Metadata endpoints (public) - standard rate limiting
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/stations", metadataHandler.ListStations)
		})

		// Prediction endpoint - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Post("/routes:predict", predictHandler.PredictRoute)
	})

	return r
}
