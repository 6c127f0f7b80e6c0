package station

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory implementation of Repository.
// Used for local development and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	stations []Station
	readings map[string]*Reading
}

// NewMemoryRepository creates a new in-memory station repository.
func NewMemoryRepository(stations []Station) *MemoryRepository {
	return &MemoryRepository{
		stations: stations,
		readings: make(map[string]*Reading),
	}
}

// ListStations returns all known stations.
func (r *MemoryRepository) ListStations(_ context.Context) ([]Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Station, len(r.stations))
	copy(out, r.stations)
	return out, nil
}

// LatestReading returns the most recent stored reading for a station.
func (r *MemoryRepository) LatestReading(_ context.Context, stationID string) (*Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reading, ok := r.readings[stationID]
	if !ok {
		return nil, ErrNoReading
	}
	return reading, nil
}

// UpsertLatestReading stores or replaces a station's latest reading.
func (r *MemoryRepository) UpsertLatestReading(_ context.Context, reading *Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings[reading.StationID] = reading
	return nil
}

// Ensure MemoryRepository implements Repository interface.
var _ Repository = (*MemoryRepository)(nil)
