package handler

import (
	"net/http"

	"github.com/ratheesh-17/airaware/internal/api/models"
	"github.com/ratheesh-17/airaware/internal/api/response"
	"github.com/ratheesh-17/airaware/internal/station"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	stations *station.Service
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler(stations *station.Service) *MetadataHandler {
	return &MetadataHandler{stations: stations}
}

// ListStations handles GET /v1/metadata/stations - station metadata listing.
func (h *MetadataHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.stations.Stations(r.Context())
	if err != nil {
		response.InternalError(w, r, "station metadata unavailable")
		return
	}

	out := models.StationList{Stations: make([]models.Station, 0, len(stations))}
	for _, s := range stations {
		out.Stations = append(out.Stations, models.Station{
			ID:       s.ID,
			Name:     s.Name,
			Location: models.Point{Lat: s.Lat, Lon: s.Lon},
		})
	}

	response.JSON(w, r, http.StatusOK, out)
}
