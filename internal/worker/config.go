// Package worker provides background job processing for AirAware.
package worker

import "time"

// RefreshConfig holds configuration for the readings refresh job.
type RefreshConfig struct {
	// Concurrency is the number of concurrent station refreshes.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for refreshing a single station.
	// Default: 30 seconds
	Timeout time.Duration

	// MaxStations caps how many stations one run refreshes, so a single
	// run cannot drain the provider's daily quota. Zero means no cap.
	MaxStations int
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}
