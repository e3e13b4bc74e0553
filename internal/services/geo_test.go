package services

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
	}{
		{"same point", 10.64, -61.40, 10.64, -61.40, 0},
		{"one degree of latitude", 0, 0, 1, 0, 111.195},
		{"one degree of longitude at equator", 0, 0, 0, 1, 111.195},
		{"port of spain to san fernando", 10.6596, -61.5190, 10.2796, -61.4589, 42.762},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > 0.1 {
				t.Errorf("expected ~%.3f km, got %.3f km", tt.want, got)
			}
		})
	}
}

func TestWithinProximity(t *testing.T) {
	// 0.0035 degrees of latitude is ~0.389 km, 0.0036 is ~0.400 km
	if !WithinProximity(10.64, -61.40, 10.6435, -61.40) {
		t.Error("expected 0.389 km to be within range")
	}
	if WithinProximity(10.64, -61.40, 10.6436, -61.40) {
		t.Error("expected 0.4003 km to be out of range")
	}
	if WithinProximity(10.64, -61.40, 10.70, -61.40) {
		t.Error("expected 6.7 km to be out of range")
	}
}
