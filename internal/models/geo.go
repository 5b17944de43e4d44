package models

// GeoPoint is a resolved geocoding result.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"` // IANA zone name, e.g. America/New_York
}
