package models

// User represents a stored user record enriched with geolocation data.
type User struct {
	ID        string  `json:"id" db:"user_id"`           // Store-assigned opaque identifier
	Name      string  `json:"name" db:"name"`            // Display name
	ZipCode   string  `json:"zipCode" db:"zip_code"`     // Postal code used for geocoding
	Country   string  `json:"country" db:"country"`      // ISO-2 country code, defaults to US
	Latitude  float64 `json:"latitude" db:"latitude"`    // Server-computed latitude
	Longitude float64 `json:"longitude" db:"longitude"`  // Server-computed longitude
	Timezone  string  `json:"timezone" db:"timezone"`    // IANA zone derived from coordinates
	CreatedAt int64   `json:"createdAt" db:"created_at"` // Epoch milliseconds, set once
	UpdatedAt int64   `json:"updatedAt" db:"updated_at"` // Epoch milliseconds, refreshed on update
}

// UserUpdate is a partial update of a user record. Nil fields are left
// untouched by the store.
type UserUpdate struct {
	Name      *string  `json:"name,omitempty"`
	ZipCode   *string  `json:"zipCode,omitempty"`
	Country   *string  `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Timezone  *string  `json:"timezone,omitempty"`
}
