// Package pollution provides access to live air-pollution data providers.
package pollution

import (
	"context"
	"errors"
	"time"
)

// Provider errors.
var (
	ErrProviderUnavailable = errors.New("pollution provider unavailable")
	ErrMalformedPayload    = errors.New("pollution provider returned malformed payload")
)

// Components is a normalized pollutant-component reading for a coordinate.
type Components struct {
	PM25       float64
	PM10       float64
	NO2        float64
	CO         float64
	O3         float64
	ObservedAt time.Time
}

// Provider defines the interface for live pollution data providers.
type Provider interface {
	// Name returns the provider name used for quota accounting.
	Name() string

	// FetchComponents fetches the pollutant components near a coordinate.
	FetchComponents(ctx context.Context, lat, lon float64) (*Components, error)
}
