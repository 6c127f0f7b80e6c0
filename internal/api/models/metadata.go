package models

// Station represents an air quality monitoring station.
type Station struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location Point  `json:"location"`
}

// StationList is the station metadata listing response.
type StationList struct {
	Stations []Station `json:"stations"`
}
