package exposure

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/internal/alert"
	"github.com/ratheesh-17/airaware/internal/forecast"
	"github.com/ratheesh-17/airaware/internal/narrative"
	"github.com/ratheesh-17/airaware/internal/quota"
	"github.com/ratheesh-17/airaware/internal/reading"
	"github.com/ratheesh-17/airaware/internal/routing"
	"github.com/ratheesh-17/airaware/pkg/polyline"
)

const (
	// DefaultSampleStepMeters is the waypoint sampling interval along a route.
	DefaultSampleStepMeters = 300

	// DefaultWorkerCount bounds concurrent per-waypoint work.
	DefaultWorkerCount = 8

	// DefaultMaxAlternatives is how many alternative routes to request.
	DefaultMaxAlternatives = 2
)

// ServiceConfig holds configuration for the exposure orchestrator.
type ServiceConfig struct {
	// Routing computes candidate routes (required).
	Routing *routing.Service

	// Readings resolves a pollutant reading per waypoint (required).
	Readings *reading.Resolver

	// Quota gates provider-dependent work (required).
	Quota *quota.Guard

	// Vectors builds model feature vectors from readings (required).
	Vectors *forecast.VectorBuilder

	// Predictor runs regression inference (required).
	Predictor forecast.Predictor

	// Alerts evaluates aggregated forecasts (required).
	Alerts *alert.Evaluator

	// Narrative summarizes the result set (required).
	Narrative *narrative.Generator

	// SampleStepMeters is the waypoint sampling interval (default: 300).
	SampleStepMeters float64

	// WorkerCount bounds concurrent waypoint processing (default: 8).
	WorkerCount int

	// MaxAlternatives is the alternative route count (default: 2).
	MaxAlternatives int

	// Logger for orchestrator operations.
	Logger zerolog.Logger
}

// Service runs the route-exposure pipeline for one request at a time.
type Service struct {
	routing         *routing.Service
	readings        *reading.Resolver
	quota           *quota.Guard
	vectors         *forecast.VectorBuilder
	predictor       forecast.Predictor
	alerts          *alert.Evaluator
	narrative       *narrative.Generator
	sampleStep      float64
	workerCount     int
	maxAlternatives int
	logger          zerolog.Logger
}

// NewService creates a new exposure orchestrator.
func NewService(cfg ServiceConfig) *Service {
	sampleStep := cfg.SampleStepMeters
	if sampleStep <= 0 {
		sampleStep = DefaultSampleStepMeters
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}

	maxAlternatives := cfg.MaxAlternatives
	if maxAlternatives <= 0 {
		maxAlternatives = DefaultMaxAlternatives
	}

	return &Service{
		routing:         cfg.Routing,
		readings:        cfg.Readings,
		quota:           cfg.Quota,
		vectors:         cfg.Vectors,
		predictor:       cfg.Predictor,
		alerts:          cfg.Alerts,
		narrative:       cfg.Narrative,
		sampleStep:      sampleStep,
		workerCount:     workerCount,
		maxAlternatives: maxAlternatives,
		logger:          cfg.Logger,
	}
}

// Predict runs the full pipeline for one source/destination pair.
//
// Fails with quota.ErrServiceDisabled when a critical provider's daily quota
// is exhausted, with a routing error when no candidate route can be
// obtained, and with ErrNoUsableData when every route is dropped for lack
// of valid forecasts. Per-waypoint failures degrade silently.
func (s *Service) Predict(ctx context.Context, req PredictionRequest) (*PredictionResponse, error) {
	start := time.Now()

	if err := s.quota.SystemEnabled(ctx); err != nil {
		return nil, err
	}

	directions, err := s.routing.GetDirections(ctx, routing.DirectionsRequest{
		Origin:          req.Source,
		Destination:     req.Destination,
		Profile:         routing.ProfileDrive,
		MaxAlternatives: s.maxAlternatives,
	})
	if err != nil {
		return nil, err
	}

	var summaries []forecast.RouteSummary
	for i, route := range directions.Routes {
		waypoints := polyline.Sample(route.Geometry, s.sampleStep)
		if len(waypoints) == 0 {
			continue
		}

		results := s.processWaypoints(ctx, waypoints)

		summary, ok := forecast.Aggregate(i, results)
		if !ok {
			s.logger.Debug().
				Int("route_index", i).
				Int("waypoints", len(waypoints)).
				Msg("route dropped, no valid forecasts")
			continue
		}
		summaries = append(summaries, summary)
	}

	if len(summaries) == 0 {
		return nil, ErrNoUsableData
	}

	s.alerts.Evaluate(summaries)

	response := &PredictionResponse{
		Routes:    summaries,
		Narrative: s.narrative.Summarize(ctx, summaries),
	}

	s.logger.Info().
		Int("route_count", len(summaries)).
		Dur("elapsed", time.Since(start)).
		Msg("route exposure prediction complete")

	return response, nil
}

// processWaypoints resolves a reading and runs inference for each waypoint
// using a bounded worker pool. Result order is not significant; aggregation
// is order-independent.
func (s *Service) processWaypoints(ctx context.Context, waypoints []polyline.Coordinate) []forecast.WaypointResult {
	jobs := make(chan int, len(waypoints))
	results := make([]forecast.WaypointResult, len(waypoints))

	workers := s.workerCount
	if workers > len(waypoints) {
		workers = len(waypoints)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = s.processWaypoint(ctx, waypoints[idx])
			}
		}()
	}

	for i := range waypoints {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// processWaypoint handles one waypoint: reading resolution, feature vector
// assembly, inference. Any failure yields a degraded result, never an error.
func (s *Service) processWaypoint(ctx context.Context, wp polyline.Coordinate) forecast.WaypointResult {
	if ctx.Err() != nil {
		return forecast.WaypointResult{}
	}

	r := s.readings.Resolve(ctx, wp.Lat, wp.Lon)
	if r == nil {
		return forecast.WaypointResult{}
	}

	components := r.Components()
	features := make(map[string]any, len(components))
	for k, v := range components {
		features[k] = v
	}

	vector := s.vectors.Build(features)

	prediction, err := s.predictor.Predict(ctx, vector)
	if err != nil {
		s.logger.Warn().Err(err).
			Float64("lat", wp.Lat).
			Float64("lon", wp.Lon).
			Msg("inference failed for waypoint")
		return forecast.WaypointResult{HadReading: true}
	}

	return forecast.WaypointResult{HadReading: true, Forecast: prediction}
}
