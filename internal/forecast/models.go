// Package forecast turns pollutant readings into model feature vectors and
// aggregates per-waypoint forecasts into per-route statistics.
package forecast

import (
	"context"
	"errors"
)

// Sentinel errors for forecast operations.
var (
	// ErrVectorLength indicates a feature vector does not match the model schema length.
	ErrVectorLength = errors.New("feature vector length does not match model schema")
	// ErrInferenceUnavailable indicates the inference service is down or returned garbage.
	ErrInferenceUnavailable = errors.New("inference service unavailable")
)

// Predictor produces a forecast vector (one value per horizon) from a
// fixed-length feature vector.
type Predictor interface {
	Predict(ctx context.Context, features []float64) ([]float64, error)
	Name() string
}

// WaypointResult is the outcome of processing one waypoint: whether a
// pollutant reading was resolved, and the forecast vector if inference
// succeeded (nil otherwise).
type WaypointResult struct {
	HadReading bool
	Forecast   []float64
}

// RouteSummary aggregates per-waypoint forecasts for one candidate route.
// MeanForecast and MaxForecast carry one value per horizon index.
// WaypointCount counts waypoints that produced a reading, whether or not
// inference on them succeeded.
type RouteSummary struct {
	RouteIndex    int       `json:"route_index"`
	MeanForecast  []float64 `json:"mean_forecast"`
	MaxForecast   []float64 `json:"max_forecast"`
	WaypointCount int       `json:"waypoint_count"`
}
