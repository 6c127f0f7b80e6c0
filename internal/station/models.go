// Package station provides monitoring station metadata, nearest-station
// resolution, and access to the latest persisted pollutant readings.
package station

import (
	"errors"
	"time"
)

// Station errors.
var (
	ErrStationNotFound = errors.New("station not found")
	ErrNoStations      = errors.New("no stations available")
	ErrNoReading       = errors.New("no reading for station")
)

// Station represents an air quality monitoring station.
type Station struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

// Reading is a pollutant reading tied to a station. Immutable once obtained.
type Reading struct {
	StationID  string
	PM25       float64
	PM10       float64
	NO2        float64
	CO         float64
	O3         float64
	ObservedAt time.Time
}

// Components returns the reading as a pollutant-name map, the shape consumed
// by the feature vector builder. Keys match the model's training columns.
func (r *Reading) Components() map[string]float64 {
	return map[string]float64{
		"pm2_5": r.PM25,
		"pm10":  r.PM10,
		"no2":   r.NO2,
		"co":    r.CO,
		"o3":    r.O3,
	}
}
