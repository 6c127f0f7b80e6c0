package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/internal/pollution"
	"github.com/ratheesh-17/airaware/internal/quota"
	"github.com/ratheesh-17/airaware/internal/station"
)

// RefreshJob walks the station set and repopulates the persisted
// latest-reading store from the live pollution provider. Every provider
// call goes through the quota guard; a denied call skips that station.
type RefreshJob struct {
	config   RefreshConfig
	logger   zerolog.Logger
	stations *station.Service
	repo     station.Repository
	provider pollution.Provider
	guard    *quota.Guard

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns           int64
	StationsRefreshed   int64
	StationsFailed      int64
	StationsQuotaDenied int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config   RefreshConfig
	Logger   zerolog.Logger
	Stations *station.Service
	Repo     station.Repository
	Provider pollution.Provider
	Guard    *quota.Guard
}

// NewRefreshJob creates a new readings refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultRefreshConfig().Concurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRefreshConfig().Timeout
	}

	return &RefreshJob{
		config:   config,
		logger:   cfg.Logger,
		stations: cfg.Stations,
		repo:     cfg.Repo,
		provider: cfg.Provider,
		guard:    cfg.Guard,
		metrics:  &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one refresh run.
type RefreshResult struct {
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	TotalStations int
	Refreshed     int
	QuotaDenied   int
	Failed        int
	Errors        []RefreshError
}

// RefreshError records a per-station failure.
type RefreshError struct {
	StationID string
	Error     string
}

// Run refreshes the latest reading for every station, honoring the
// configured MaxStations cap.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	return j.RunWithCap(ctx, j.config.MaxStations)
}

// RunWithCap refreshes at most maxStations stations. Zero means no cap
// beyond the configured one.
func (j *RefreshJob) RunWithCap(ctx context.Context, maxStations int) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{StartTime: startTime}

	if maxStations <= 0 {
		maxStations = j.config.MaxStations
	}

	stations, err := j.stations.Stations(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("listing stations failed, aborting refresh")
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		return result
	}

	if maxStations > 0 && len(stations) > maxStations {
		stations = stations[:maxStations]
	}
	result.TotalStations = len(stations)

	j.logger.Info().
		Int("stations", len(stations)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting readings refresh job")

	stationsChan := make(chan station.Station, len(stations))
	resultsChan := make(chan stationResult, len(stations))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, stationsChan, resultsChan)
		}()
	}

	for _, s := range stations {
		stationsChan <- s
	}
	close(stationsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for sr := range resultsChan {
		switch {
		case sr.quotaDenied:
			result.QuotaDenied++
		case sr.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{
				StationID: sr.stationID,
				Error:     sr.err.Error(),
			})
		default:
			result.Refreshed++
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("refreshed", result.Refreshed).
		Int("quota_denied", result.QuotaDenied).
		Int("failed", result.Failed).
		Msg("readings refresh job completed")

	return result
}

type stationResult struct {
	stationID   string
	quotaDenied bool
	err         error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, stations <-chan station.Station, results chan<- stationResult) {
	for s := range stations {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshStation(ctx, s)
		}
	}
}

// refreshStation makes one quota-guarded provider call and upserts the
// station's latest reading.
func (j *RefreshJob) refreshStation(ctx context.Context, s station.Station) stationResult {
	stationCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if err := j.guard.CheckAndIncrement(stationCtx, j.provider.Name()); err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			j.logger.Debug().
				Str("station_id", s.ID).
				Msg("station refresh skipped, quota exhausted")
			return stationResult{stationID: s.ID, quotaDenied: true}
		}
		return stationResult{stationID: s.ID, err: err}
	}

	components, err := j.provider.FetchComponents(stationCtx, s.Lat, s.Lon)
	if err != nil {
		return stationResult{stationID: s.ID, err: err}
	}

	fresh := &station.Reading{
		StationID:  s.ID,
		PM25:       components.PM25,
		PM10:       components.PM10,
		NO2:        components.NO2,
		CO:         components.CO,
		O3:         components.O3,
		ObservedAt: components.ObservedAt,
	}
	if err := j.repo.UpsertLatestReading(stationCtx, fresh); err != nil {
		return stationResult{stationID: s.ID, err: err}
	}

	return stationResult{stationID: s.ID}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.StationsRefreshed += int64(result.Refreshed)
	j.metrics.StationsFailed += int64(result.Failed)
	j.metrics.StationsQuotaDenied += int64(result.QuotaDenied)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:           j.metrics.TotalRuns,
		StationsRefreshed:   j.metrics.StationsRefreshed,
		StationsFailed:      j.metrics.StationsFailed,
		StationsQuotaDenied: j.metrics.StationsQuotaDenied,
		LastRunAt:           j.metrics.LastRunAt,
		LastRunDuration:     j.metrics.LastRunDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":            m.TotalRuns,
		"stations_refreshed":    m.StationsRefreshed,
		"stations_failed":       m.StationsFailed,
		"stations_quota_denied": m.StationsQuotaDenied,
		"last_run_at":           m.LastRunAt,
		"last_run_duration":     m.LastRunDuration.String(),
	}
}
