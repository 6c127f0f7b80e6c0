package openrouteservice

import "encoding/json"

// orsRequest represents the ORS directions API request body.
type orsRequest struct {
	Coordinates       [][]float64            `json:"coordinates"`
	AlternativeRoutes *alternativeRoutesOpts `json:"alternative_routes,omitempty"`
	Instructions      bool                   `json:"instructions"`
	Geometry          bool                   `json:"geometry"`
	Units             string                 `json:"units"`
	Language          string                 `json:"language"`
}

// alternativeRoutesOpts configures alternative route generation.
type alternativeRoutesOpts struct {
	TargetCount int `json:"target_count"`
}

// orsResponse covers both response shapes the directions API is known to
// return: a "routes" list (application/json) and a GeoJSON feature
// collection (application/geo+json).
type orsResponse struct {
	Routes   []orsRoute   `json:"routes"`
	Features []orsFeature `json:"features"`
	BBox     []float64    `json:"bbox,omitempty"`
	Metadata *metadata    `json:"metadata,omitempty"`
}

// metadata contains response metadata.
type metadata struct {
	Attribution string `json:"attribution,omitempty"`
	Service     string `json:"service,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

// orsRoute represents a single route in the "routes" response shape.
// Geometry is kept raw because ORS emits either an encoded polyline string
// or a GeoJSON geometry object depending on request parameters.
type orsRoute struct {
	Summary  routeSummary    `json:"summary"`
	Segments []routeSegment  `json:"segments,omitempty"`
	BBox     []float64       `json:"bbox,omitempty"`
	Geometry json.RawMessage `json:"geometry"`
}

// orsFeature represents a single route in the GeoJSON response shape.
type orsFeature struct {
	Geometry   geoGeometry       `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

// geoGeometry is a GeoJSON LineString geometry with [lon, lat] positions.
type geoGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// featureProperties holds per-route properties in the GeoJSON shape.
type featureProperties struct {
	Summary  routeSummary   `json:"summary"`
	Segments []routeSegment `json:"segments,omitempty"`
}

// routeSummary contains summary information for a route.
type routeSummary struct {
	Distance float64 `json:"distance"` // Distance in meters
	Duration float64 `json:"duration"` // Duration in seconds
}

// routeSegment represents a segment of the route.
type routeSegment struct {
	Distance float64     `json:"distance"`
	Duration float64     `json:"duration"`
	Steps    []routeStep `json:"steps,omitempty"`
}

// routeStep represents a single step (instruction) in a segment.
type routeStep struct {
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	Type        int     `json:"type"`
	Instruction string  `json:"instruction"`
	Name        string  `json:"name"`
}

// orsErrorResponse represents an error response from ORS.
type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Info string `json:"info,omitempty"`
}

// ORS error codes for error mapping.
const (
	orsErrorCodeNotFound     = 2009 // Route not found
	orsErrorCodeInvalidParam = 2003 // Invalid parameter
)
