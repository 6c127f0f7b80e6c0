package station

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/pkg/polyline"
)

// ServiceConfig holds configuration for the station service.
type ServiceConfig struct {
	// Repository is the station and readings store (required).
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// StationCacheTTL is how long the station list is cached (default: 1 hour).
	// Station metadata changes rarely.
	StationCacheTTL time.Duration
}

// Service resolves nearest stations and latest readings.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration

	mu          sync.RWMutex
	stations    []Station
	cacheExpiry time.Time
}

// NewService creates a new station service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.StationCacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
	}
}

// Stations returns the known station set, cached.
func (s *Service) Stations(ctx context.Context) ([]Station, error) {
	s.mu.RLock()
	if s.stations != nil && time.Now().Before(s.cacheExpiry) {
		stations := s.stations
		s.mu.RUnlock()
		return stations, nil
	}
	s.mu.RUnlock()

	return s.refreshStations(ctx)
}

// Nearest returns the station closest to the query coordinate and its
// distance in meters. Ties go to the first station in iteration order.
// Returns ErrNoStations when the station set is empty.
func (s *Service) Nearest(ctx context.Context, lat, lon float64) (Station, float64, error) {
	stations, err := s.Stations(ctx)
	if err != nil {
		return Station{}, 0, err
	}
	if len(stations) == 0 {
		return Station{}, 0, ErrNoStations
	}

	query := polyline.Coordinate{Lat: lat, Lon: lon}
	best := stations[0]
	bestDist := polyline.Distance(query, polyline.Coordinate{Lat: best.Lat, Lon: best.Lon})

	for _, candidate := range stations[1:] {
		d := polyline.Distance(query, polyline.Coordinate{Lat: candidate.Lat, Lon: candidate.Lon})
		if d < bestDist {
			best = candidate
			bestDist = d
		}
	}

	return best, bestDist, nil
}

// Latest returns the most recent persisted reading for a station.
func (s *Service) Latest(ctx context.Context, stationID string) (*Reading, error) {
	return s.repo.LatestReading(ctx, stationID)
}

// InvalidateCache clears the cached station list.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations = nil
	s.cacheExpiry = time.Time{}
}

// refreshStations reloads the station list from the repository.
func (s *Service) refreshStations(ctx context.Context) ([]Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine might have refreshed while we waited.
	if s.stations != nil && time.Now().Before(s.cacheExpiry) {
		return s.stations, nil
	}

	stations, err := s.repo.ListStations(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load stations")
		return nil, err
	}

	s.stations = stations
	s.cacheExpiry = time.Now().Add(s.cacheTTL)

	s.logger.Debug().
		Int("stations", len(stations)).
		Time("expires_at", s.cacheExpiry).
		Msg("station list refreshed")

	return stations, nil
}
