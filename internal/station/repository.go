package station

import (
	"context"
)

// Repository provides access to station metadata and persisted latest readings.
type Repository interface {
	// ListStations returns all known stations.
	ListStations(ctx context.Context) ([]Station, error)

	// LatestReading returns the most recent persisted reading for a station,
	// or ErrNoReading when none exists.
	LatestReading(ctx context.Context, stationID string) (*Reading, error)

	// UpsertLatestReading stores or replaces a station's latest reading.
	UpsertLatestReading(ctx context.Context, reading *Reading) error
}
