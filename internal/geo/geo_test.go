package geo

import (
	"math"
	"testing"
)

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	t.Parallel()

	points := [][2]float64{
		{0, 0},
		{40.7128, -74.0060},
		{-33.8688, 151.2093},
		{90, 180},
	}
	for _, p := range points {
		if d := DistanceKm(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
	}{
		{"new york to los angeles", 40.7128, -74.0060, 34.0522, -118.2437},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522},
		{"across antimeridian", 10, 179.5, 10, -179.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ab := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			ba := DistanceKm(tt.lat2, tt.lng2, tt.lat1, tt.lng1)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("asymmetric distance: %v vs %v", ab, ba)
			}
		})
	}
}

func TestDistanceKm_KnownDistances(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want, tolerance        float64
	}{
		{"new york to los angeles", 40.7128, -74.0060, 34.0522, -118.2437, 3944, 5},
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.1},
		{"quarter meridian", 0, 0, 90, 0, math.Pi * EarthRadiusKm / 2, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("DistanceKm = %.3f, want %.3f ± %.3f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistanceM_TenMeters(t *testing.T) {
	t.Parallel()

	// 0.0001 degrees of latitude is about 11.1 m.
	d := DistanceM(12.0, 77.0, 12.0001, 77.0)
	if d < 10 || d > 12 {
		t.Errorf("DistanceM = %v, want ~11.1", d)
	}
}

func TestValidCoordinates(t *testing.T) {
	t.Parallel()

	if !ValidLatitude(-90) || !ValidLatitude(90) || ValidLatitude(90.1) {
		t.Error("latitude bounds are wrong")
	}
	if !ValidLongitude(-180) || !ValidLongitude(180) || ValidLongitude(-180.1) {
		t.Error("longitude bounds are wrong")
	}
}
