package services

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used by Haversine
	EarthRadiusKm = 6371.0
	// ProximityRadiusKm is how close the van must be to trigger an arrival alert
	ProximityRadiusKm = 0.4
)

// Haversine returns the great-circle distance in kilometres between two points
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// WithinProximity reports whether two points are strictly closer than ProximityRadiusKm
func WithinProximity(lat1, lng1, lat2, lng2 float64) bool {
	return Haversine(lat1, lng1, lat2, lng2) < ProximityRadiusKm
}
