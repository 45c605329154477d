package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMiles(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		delta                  float64
	}{
		{name: "same point", lat1: 40.7128, lng1: -74.0060, lat2: 40.7128, lng2: -74.0060, want: 0, delta: 1e-9},
		{name: "new york to los angeles", lat1: 40.7128, lng1: -74.0060, lat2: 34.0522, lng2: -118.2437, want: 2445, delta: 5},
		{name: "one degree of latitude", lat1: 0, lng1: 10, lat2: 1, lng2: 10, want: 69.09, delta: 0.01},
		{name: "antipodal", lat1: 0, lng1: 0, lat2: 0, lng2: 180, want: math.Pi * EarthRadiusMiles, delta: 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineMiles(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.want, got, tt.delta)
		})
	}
}

func TestHaversineMiles_Properties(t *testing.T) {
	points := [][2]float64{
		{40.7128, -74.0060}, {51.5074, -0.1278}, {-33.8688, 151.2093}, {35.6762, 139.6503}, {-89.9, 10}, {0.5, -179.9},
	}

	for _, a := range points {
		assert.Zero(t, HaversineMiles(a[0], a[1], a[0], a[1]))
		for _, b := range points {
			ab := HaversineMiles(a[0], a[1], b[0], b[1])
			ba := HaversineMiles(b[0], b[1], a[0], a[1])
			assert.InDelta(t, ab, ba, 1e-9, "symmetry")
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, math.Pi*EarthRadiusMiles+1e-9)
		}
	}
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, ValidateCoordinates(0, 0))
	assert.True(t, ValidateCoordinates(-90, 180))
	assert.False(t, ValidateCoordinates(90.1, 0))
	assert.False(t, ValidateCoordinates(0, -180.5))
	assert.False(t, ValidateCoordinates(math.NaN(), 0))

	assert.False(t, HasValidCoordinates(0, -74))
	assert.False(t, HasValidCoordinates(40, 0))
	assert.True(t, HasValidCoordinates(40.7, -74))
}

func TestRadiusBounds(t *testing.T) {
	lat, lng := 40.7128, -74.0060
	b := RadiusBounds(lat, lng, 10)

	assert.True(t, b.Contains(lat, lng))
	assert.Less(t, b.MaxLat-b.MinLat, 1.0)
	assert.Less(t, b.MaxLng-b.MinLng, 1.0)

	// every point on the 10 mile circle must be inside the box
	for deg := 0; deg < 360; deg += 15 {
		theta := float64(deg) * math.Pi / 180
		dLat := 9.99 / 69.09 * math.Cos(theta)
		dLng := 9.99 / (69.09 * math.Cos((lat+dLat)*math.Pi/180)) * math.Sin(theta)
		pLat, pLng := lat+dLat, lng+dLng
		if HaversineMiles(lat, lng, pLat, pLng) <= 10 {
			assert.True(t, b.Contains(pLat, pLng), "bearing %d", deg)
		}
	}

	polar := RadiusBounds(89.99, 0, 10)
	assert.Equal(t, -180.0, polar.MinLng)
	assert.Equal(t, 180.0, polar.MaxLng)

	dateline := RadiusBounds(10, 179.99, 50)
	assert.Equal(t, -180.0, dateline.MinLng)
	assert.Equal(t, 180.0, dateline.MaxLng)
}
