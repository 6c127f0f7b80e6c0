// Package handler provides HTTP handlers for the AirAware API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ratheesh-17/airaware/internal/api/models"
	"github.com/ratheesh-17/airaware/internal/api/response"
	"github.com/ratheesh-17/airaware/internal/exposure"
	"github.com/ratheesh-17/airaware/internal/quota"
	"github.com/ratheesh-17/airaware/internal/routing"
)

// PredictHandler handles route exposure prediction.
type PredictHandler struct {
	exposure *exposure.Service
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(svc *exposure.Service) *PredictHandler {
	return &PredictHandler{exposure: svc}
}

// PredictRoute handles POST /v1/routes:predict.
func (h *PredictHandler) PredictRoute(w http.ResponseWriter, r *http.Request) {
	var input models.PredictRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	source, err := exposure.ParseCoordinate(input.Source)
	if err != nil {
		response.BadRequest(w, r, "source/destination must be 'lat,lon'", []models.FieldError{
			{Field: "source", Message: err.Error(), Code: "invalid_coordinate"},
		})
		return
	}
	destination, err := exposure.ParseCoordinate(input.Destination)
	if err != nil {
		response.BadRequest(w, r, "source/destination must be 'lat,lon'", []models.FieldError{
			{Field: "destination", Message: err.Error(), Code: "invalid_coordinate"},
		})
		return
	}

	result, err := h.exposure.Predict(r.Context(), exposure.PredictionRequest{
		Source:      source,
		Destination: destination,
	})
	if err != nil {
		h.writePredictError(w, r, err)
		return
	}

	out := models.PredictRouteResponse{
		Routes:    make([]models.RouteSummary, 0, len(result.Routes)),
		Narrative: result.Narrative,
	}
	for _, s := range result.Routes {
		out.Routes = append(out.Routes, models.RouteSummary{
			RouteIndex:    s.RouteIndex,
			MeanForecast:  s.MeanForecast,
			MaxForecast:   s.MaxForecast,
			WaypointCount: s.WaypointCount,
		})
	}

	response.JSON(w, r, http.StatusOK, out)
}

// writePredictError maps pipeline errors onto the HTTP surface.
func (h *PredictHandler) writePredictError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quota.ErrServiceDisabled):
		response.ServiceUnavailable(w, r, "daily quota for a critical provider is exhausted")
	case errors.Is(err, routing.ErrInvalidCoordinates):
		response.BadRequest(w, r, "invalid coordinates", nil)
	case errors.Is(err, routing.ErrNoRouteFound):
		response.NotFound(w, r, "no route found between the given points")
	case errors.Is(err, routing.ErrRateLimitExceeded),
		errors.Is(err, routing.ErrProviderUnavailable),
		errors.Is(err, exposure.ErrNoUsableData):
		response.BadGateway(w, r, "upstream providers returned no usable data")
	default:
		response.InternalError(w, r, "route exposure prediction failed")
	}
}
