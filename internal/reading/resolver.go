// Package reading resolves a pollutant reading for a route waypoint.
//
// Resolution order: persisted latest reading for the nearest station, then
// the in-process TTL cache keyed by rounded coordinates, then one
// quota-guarded call to the live pollution provider. Every failure along the
// chain degrades to "no reading" for that waypoint; nothing here is fatal to
// the surrounding request.
package reading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/internal/cache"
	"github.com/ratheesh-17/airaware/internal/pollution"
	"github.com/ratheesh-17/airaware/internal/quota"
	"github.com/ratheesh-17/airaware/internal/station"
)

// DefaultCacheTTL is how long a live-provider reading stays cached.
const DefaultCacheTTL = 10 * time.Minute

// ResolverConfig holds configuration for the reading resolver.
type ResolverConfig struct {
	// Stations resolves nearest stations and persisted readings (required).
	Stations *station.Service

	// Provider is the live pollution data source (required).
	Provider pollution.Provider

	// Quota guards live provider calls (required).
	Quota *quota.Guard

	// Cache memoizes live provider results. If nil, a fresh cache is created.
	Cache *cache.Cache[string, *station.Reading]

	// CacheTTL is the live-result cache lifetime (default: 10 minutes).
	CacheTTL time.Duration

	// Logger for resolver operations.
	Logger zerolog.Logger
}

// Resolver obtains a pollutant reading for a coordinate.
type Resolver struct {
	stations *station.Service
	provider pollution.Provider
	quota    *quota.Guard
	cache    *cache.Cache[string, *station.Reading]
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewResolver creates a new reading resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	c := cfg.Cache
	if c == nil {
		c = cache.New[string, *station.Reading]()
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = DefaultCacheTTL
	}

	return &Resolver{
		stations: cfg.Stations,
		provider: cfg.Provider,
		quota:    cfg.Quota,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   cfg.Logger,
	}
}

// Resolve returns the reading for a waypoint, or nil when none could be
// obtained. Provider denial, timeout, and malformed payloads all yield nil;
// a single attempt is made per call, no retries.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) *station.Reading {
	nearestID := ""
	nearest, dist, err := r.stations.Nearest(ctx, lat, lon)
	if err == nil {
		nearestID = nearest.ID
	} else if !errors.Is(err, station.ErrNoStations) {
		r.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("nearest station lookup failed")
	}

	// Persisted latest reading wins when the station has one.
	if nearestID != "" {
		persisted, err := r.stations.Latest(ctx, nearestID)
		if err == nil {
			return persisted
		}
		if !errors.Is(err, station.ErrNoReading) {
			r.logger.Error().Err(err).
				Str("station_id", nearestID).
				Msg("latest reading query failed")
		}

		r.logger.Debug().
			Str("station_id", nearestID).
			Float64("distance_m", dist).
			Msg("no persisted reading for nearest station")
	}

	key := r.cacheKey(lat, lon)
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	return r.fetchLive(ctx, lat, lon, nearestID, key)
}

// fetchLive makes one quota-guarded provider call and caches the result.
func (r *Resolver) fetchLive(ctx context.Context, lat, lon float64, stationID, key string) *station.Reading {
	if err := r.quota.CheckAndIncrement(ctx, r.provider.Name()); err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			r.logger.Debug().
				Str("provider", r.provider.Name()).
				Msg("live reading skipped: quota exhausted")
		} else {
			r.logger.Error().Err(err).Msg("quota check failed")
		}
		return nil
	}

	components, err := r.provider.FetchComponents(ctx, lat, lon)
	if err != nil {
		r.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("live pollution fetch failed")
		return nil
	}

	fresh := &station.Reading{
		StationID:  stationID,
		PM25:       components.PM25,
		PM10:       components.PM10,
		NO2:        components.NO2,
		CO:         components.CO,
		O3:         components.O3,
		ObservedAt: components.ObservedAt,
	}

	r.cache.Set(key, fresh, r.cacheTTL)

	return fresh
}

// cacheKey quantizes the coordinate to 4 decimal places (~11m), so nearby
// waypoints share one cached provider result.
func (r *Resolver) cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%s:%.4f:%.4f", r.provider.Name(), lat, lon)
}
