// Package main provides the entrypoint for the AirAware background worker.
//
// The worker keeps the persisted readings store warm by refreshing every
// station's latest reading from the live pollution provider, either on a
// fixed interval or on demand via Pub/Sub job messages.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/internal/database"
	"github.com/ratheesh-17/airaware/internal/pollution/openweathermap"
	"github.com/ratheesh-17/airaware/internal/quota"
	"github.com/ratheesh-17/airaware/internal/station"
	"github.com/ratheesh-17/airaware/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airaware-worker"

	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirAware worker")

	port := envOrDefault("APP_PORT", "8080")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	stationRepo := station.NewPostgresRepository(pool)
	stations := station.NewService(station.ServiceConfig{
		Repository: stationRepo,
		Logger:     log,
	})

	guard := quota.NewGuard(quota.GuardConfig{
		Repository: quota.NewPostgresRepository(pool),
		Logger:     log,
		Limits: map[string]int{
			openweathermap.ProviderName: envIntOrDefault("OPENWEATHER_DAILY_LIMIT", 500),
		},
		DefaultLimit: envIntOrDefault("DEFAULT_LIMIT", quota.DefaultLimit),
		Critical:     []string{openweathermap.ProviderName},
	})

	pollutionClient := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey: os.Getenv("OPENWEATHERMAP_API_KEY"),
		Logger: log,
	})

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Concurrency: envIntOrDefault("REFRESH_CONCURRENCY", 0),
			MaxStations: envIntOrDefault("REFRESH_MAX_STATIONS", 0),
		},
		Logger:   log,
		Stations: stations,
		Repo:     stationRepo,
		Provider: pollutionClient,
		Guard:    guard,
	})

	// Health check endpoint for the container platform
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Pub/Sub job consumption when configured, interval refresh otherwise
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")

	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if closeErr := handler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			log.Info().
				Str("subscription", subscription).
				Msg("consuming refresh jobs from pubsub")
			if err := handler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub receive stopped")
			}
		}()
	} else {
		interval := time.Duration(envIntOrDefault("REFRESH_INTERVAL_MINUTES", 60)) * time.Minute

		go func() {
			log.Info().Dur("interval", interval).Msg("running interval refresh loop")
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			runRefresh(ctx, log, refreshJob)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					runRefresh(ctx, log, refreshJob)
				}
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func runRefresh(ctx context.Context, log zerolog.Logger, job *worker.RefreshJob) {
	result := job.Run(ctx)
	log.Info().
		Int("refreshed", result.Refreshed).
		Int("quota_denied", result.QuotaDenied).
		Int("failed", result.Failed).
		Msg("readings refresh complete")
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
