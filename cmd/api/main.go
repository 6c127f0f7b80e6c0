// Package main provides the entrypoint for the AirAware API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/internal/alert"
	"github.com/ratheesh-17/airaware/internal/alert/sendgrid"
	"github.com/ratheesh-17/airaware/internal/api"
	"github.com/ratheesh-17/airaware/internal/api/middleware"
	"github.com/ratheesh-17/airaware/internal/database"
	"github.com/ratheesh-17/airaware/internal/exposure"
	"github.com/ratheesh-17/airaware/internal/forecast"
	"github.com/ratheesh-17/airaware/internal/forecast/modelserver"
	"github.com/ratheesh-17/airaware/internal/narrative"
	"github.com/ratheesh-17/airaware/internal/pollution/openweathermap"
	"github.com/ratheesh-17/airaware/internal/provider/resilience"
	"github.com/ratheesh-17/airaware/internal/quota"
	"github.com/ratheesh-17/airaware/internal/reading"
	"github.com/ratheesh-17/airaware/internal/routing"
	"github.com/ratheesh-17/airaware/internal/routing/openrouteservice"
	"github.com/ratheesh-17/airaware/internal/station"
	"github.com/ratheesh-17/airaware/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// criticalProviders disable prediction for the day when exhausted.
var criticalProviders = []string{
	openweathermap.ProviderName,
	openrouteservice.ProviderName,
}

func main() {
	const serviceName = "airaware-api"

	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirAware API")

	port := envOrDefault("APP_PORT", "8080")
	env := envOrDefault("APP_ENV", "development")
	otlpEndpoint := envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Station metadata and persisted readings
	stationRepo := station.NewPostgresRepository(pool)
	stations := station.NewService(station.ServiceConfig{
		Repository: stationRepo,
		Logger:     log,
	})

	// Daily provider quota ledger
	guard := quota.NewGuard(quota.GuardConfig{
		Repository: quota.NewPostgresRepository(pool),
		Logger:     log,
		Limits: map[string]int{
			openweathermap.ProviderName:   envIntOrDefault("OPENWEATHER_DAILY_LIMIT", 500),
			openrouteservice.ProviderName: envIntOrDefault("OPENROUTESERVICE_DAILY_LIMIT", 800),
			sendgrid.ProviderName:         envIntOrDefault("SENDGRID_DAILY_LIMIT", 90),
		},
		DefaultLimit: envIntOrDefault("DEFAULT_LIMIT", quota.DefaultLimit),
		Critical:     criticalProviders,
	})
	log.Info().Msg("quota guard initialized")

	// Provider health registry shared by all outbound clients
	registry := resilience.NewRegistry()

	// Live pollution data
	pollutionClient := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey: os.Getenv("OPENWEATHERMAP_API_KEY"),
		Logger: log,
	})
	resolver := reading.NewResolver(reading.ResolverConfig{
		Stations: stations,
		Provider: pollutionClient,
		Quota:    guard,
		Logger:   log,
	})

	// Routing
	orsClient := openrouteservice.NewClient(openrouteservice.ClientConfig{
		APIKey:   os.Getenv("OPENROUTESERVICE_API_KEY"),
		Registry: registry,
		Logger:   log,
	})
	providerMetrics, err := middleware.NewProviderMetrics(openrouteservice.ProviderName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}
	routingSvc := routing.NewService(routing.ServiceConfig{
		Provider: orsClient,
		Metrics:  providerMetrics,
		Logger:   log,
	})

	// Inference
	featureNames := strings.Split(envOrDefault("MODEL_FEATURES", "pm2_5,pm10,no2,co,o3"), ",")
	predictor := modelserver.NewClient(modelserver.ClientConfig{
		BaseURL:      envOrDefault("MODEL_SERVER_URL", "http://localhost:8501"),
		FeatureCount: len(featureNames),
		Registry:     registry,
		Logger:       log,
	})

	// Alerting
	mailer := sendgrid.NewClient(sendgrid.ClientConfig{
		APIKey:    os.Getenv("SENDGRID_API_KEY"),
		FromEmail: os.Getenv("SENDGRID_FROM"),
		Registry:  registry,
		Logger:    log,
	})
	evaluator := alert.NewEvaluator(alert.EvaluatorConfig{
		Dispatcher: mailer,
		Recipient:  os.Getenv("ALERT_RECIPIENT"),
		Threshold:  envFloatOrDefault("ALERT_THRESHOLD", alert.DefaultThreshold),
		Logger:     log,
	})

	// Narrative summaries
	generator := narrative.NewGenerator(narrative.GeneratorConfig{
		APIKey:   os.Getenv("GEMINI_API_KEY"),
		Registry: registry,
		Logger:   log,
	})

	// Pipeline orchestrator
	exposureSvc := exposure.NewService(exposure.ServiceConfig{
		Routing:   routingSvc,
		Readings:  resolver,
		Quota:     guard,
		Vectors:   forecast.NewVectorBuilder(featureNames),
		Predictor: predictor,
		Alerts:    evaluator,
		Narrative: generator,
		Logger:    log,
	})
	log.Info().Msg("exposure pipeline initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Exposure:    exposureSvc,
		Stations:    stations,
		Guard:       guard,
		Providers: []string{
			openweathermap.ProviderName,
			openrouteservice.ProviderName,
			sendgrid.ProviderName,
		},
		Critical: criticalProviders,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	// Let in-flight alert dispatches finish before exit.
	evaluator.Wait()

	log.Info().Msg("server stopped")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
