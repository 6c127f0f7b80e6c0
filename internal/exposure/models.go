// Package exposure orchestrates the route pollution-exposure pipeline:
// candidate routes are sampled into waypoints, a reading is resolved per
// waypoint, readings become model feature vectors, forecasts are aggregated
// per route, and alerts fire for routes whose predicted peak exceeds the
// configured threshold.
package exposure

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ratheesh-17/airaware/internal/forecast"
	"github.com/ratheesh-17/airaware/internal/routing"
)

// Sentinel errors for exposure operations.
var (
	// ErrInvalidCoordinate indicates a malformed "lat,lon" input string.
	ErrInvalidCoordinate = errors.New("coordinate must be 'lat,lon'")
	// ErrNoUsableData indicates no route produced any valid forecast.
	ErrNoUsableData = errors.New("no route produced usable forecast data")
)

// PredictionRequest is a validated route-exposure request.
type PredictionRequest struct {
	Source      routing.Coordinate
	Destination routing.Coordinate
}

// PredictionResponse carries per-route summaries and a narrative
// recommendation.
type PredictionResponse struct {
	Routes    []forecast.RouteSummary `json:"routes"`
	Narrative string                  `json:"narrative"`
}

// ParseCoordinate parses a "lat,lon" string into a coordinate, validating
// numeric form and geographic range.
func ParseCoordinate(s string) (routing.Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return routing.Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return routing.Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return routing.Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return routing.Coordinate{}, fmt.Errorf("%w: %q out of range", ErrInvalidCoordinate, s)
	}

	return routing.Coordinate{Lat: lat, Lon: lon}, nil
}
