package models

// PredictRouteRequest is the route exposure prediction request body.
// Source and Destination are "lat,lon" strings.
type PredictRouteRequest struct {
	Source      string `json:"source" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

// PredictRouteResponse carries per-route forecast summaries and a narrative
// recommendation.
type PredictRouteResponse struct {
	Routes    []RouteSummary `json:"routes"`
	Narrative string         `json:"narrative"`
}

// RouteSummary is the per-route aggregated forecast.
type RouteSummary struct {
	RouteIndex    int       `json:"routeIndex"`
	MeanForecast  []float64 `json:"meanForecast"`
	MaxForecast   []float64 `json:"maxForecast"`
	WaypointCount int       `json:"waypointCount"`
}
