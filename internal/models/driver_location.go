package models

// DriverLocation is the latest GPS fix for a driver (one row per driver)
type DriverLocation struct {
	DriverID    string   `json:"driver_id" db:"driver_id"`
	Latitude    float64  `json:"lat" db:"latitude"`
	Longitude   float64  `json:"lng" db:"longitude"`
	Heading     *float64 `json:"heading,omitempty" db:"heading"`   // Direction of travel (0-360 degrees)
	Speed       *float64 `json:"speed,omitempty" db:"speed"`       // Speed in m/s
	Accuracy    *float64 `json:"accuracy,omitempty" db:"accuracy"` // GPS accuracy in meters
	DriveID     *string  `json:"drive_id,omitempty" db:"drive_id"` // Drive in progress when the fix was taken
	Timestamp   int64    `json:"timestamp" db:"timestamp"`         // Client-side timestamp
	IsConnected bool     `json:"is_connected" db:"is_connected"`
	UpdatedAt   int64    `json:"updated_at" db:"updated_at"` // Server-side timestamp
}

// LocationUpdate is what a driver device reports, over HTTP, websocket or MQTT
type LocationUpdate struct {
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lng"`
	Heading   *float64 `json:"heading,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// ValidCoordinates reports whether lat/lng fall inside the WGS84 ranges
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
