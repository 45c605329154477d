package utils

import (
	"math"
)

// EarthRadiusMiles is the sphere radius used for all distance calculations.
const EarthRadiusMiles = 3959.0

// ValidateCoordinates checks if latitude and longitude are valid
// Latitude must be between -90 and 90
// Longitude must be between -180 and 180
func ValidateCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// HasValidCoordinates is ValidateCoordinates plus the convention that a zero
// coordinate means the value was never supplied.
func HasValidCoordinates(lat, lng float64) bool {
	if lat == 0 || lng == 0 {
		return false
	}
	return ValidateCoordinates(lat, lng)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// HaversineMiles returns the great-circle distance in miles between two points.
func HaversineMiles(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push a slightly past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))

	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Bounds is a lat/lng box.
type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// RadiusBounds returns a box that contains every point within radiusMiles of the
// center. The box over-approximates the circle; callers still filter on the exact
// haversine distance. Near the poles or across the antimeridian the longitude
// range widens to the whole globe.
func RadiusBounds(lat, lng, radiusMiles float64) Bounds {
	// Pad by 1% so floating point never excludes a point on the circle.
	latDelta := radiusMiles / (EarthRadiusMiles * math.Pi / 180) * 1.01

	b := Bounds{
		MinLat: math.Max(-90, lat-latDelta),
		MaxLat: math.Min(90, lat+latDelta),
		MinLng: -180,
		MaxLng: 180,
	}

	if b.MinLat <= -90 || b.MaxLat >= 90 {
		return b
	}

	cosLat := math.Cos(toRadians(math.Max(math.Abs(b.MinLat), math.Abs(b.MaxLat))))
	if cosLat <= 1e-9 {
		return b
	}
	lngDelta := latDelta / cosLat
	if lng-lngDelta < -180 || lng+lngDelta > 180 {
		return b
	}
	b.MinLng = lng - lngDelta
	b.MaxLng = lng + lngDelta
	return b
}
