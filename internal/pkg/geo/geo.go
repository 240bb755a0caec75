package geo

import (
	"fmt"
	"math"
)

// Place is a geofenced location a check-in can be matched against.
// RadiusMeters is nil when the location relies on the system default radius.
type Place struct {
	ID           string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters *int
}

// FenceError reports a failed geofence check. It always carries the measured
// distance, the allowed radius and the nearest location name so callers can
// render an actionable rejection.
type FenceError struct {
	LocationID     string
	LocationName   string
	DistanceMeters float64
	RadiusMeters   int
}

func (e *FenceError) Error() string {
	return fmt.Sprintf("outside allowed radius: %.0fm from %s (allowed %dm)",
		e.DistanceMeters, e.LocationName, e.RadiusMeters)
}

// HaversineDistance menghitung jarak antara dua titik koordinat dalam Meter.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000 // Jari-jari bumi dalam Meter

	// Konversi ke Radian
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	// Rumus Haversine
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Normalize sanitizes raw device coordinates before any distance math.
//
// Non-numeric (NaN/Inf) coordinates are rejected outright. Coordinates that
// arrive with latitude and longitude transposed are detected with the
// heuristic "latitude > longitude => swap". This is a best-effort guess that
// happens to hold for the deployment region, not a correctness guarantee;
// out-of-range values remaining after the swap are rejected.
func Normalize(lat, lng float64) (float64, float64, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return 0, 0, fmt.Errorf("coordinates are not numeric")
	}

	if lat > lng {
		lat, lng = lng, lat
	}

	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude %.6f out of range", lat)
	}
	if lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("longitude %.6f out of range", lng)
	}

	return lat, lng, nil
}

// Nearest returns the closest place to the given point and the distance to it
// in meters. The places slice must be non-empty.
func Nearest(lat, lng float64, places []Place) (Place, float64, error) {
	if len(places) == 0 {
		return Place{}, 0, fmt.Errorf("no permitted locations to match against")
	}

	best := places[0]
	bestDist := HaversineDistance(lat, lng, best.Latitude, best.Longitude)
	for _, p := range places[1:] {
		d := HaversineDistance(lat, lng, p.Latitude, p.Longitude)
		if d < bestDist {
			best = p
			bestDist = d
		}
	}

	return best, bestDist, nil
}

// EffectiveRadius returns the place's configured radius, falling back to the
// system default when the place has none.
func EffectiveRadius(p Place, defaultRadiusMeters int) int {
	if p.RadiusMeters != nil && *p.RadiusMeters > 0 {
		return *p.RadiusMeters
	}
	return defaultRadiusMeters
}

// Validate checks a measured distance against a place's geofence.
func Validate(distanceMeters float64, p Place, defaultRadiusMeters int) error {
	radius := EffectiveRadius(p, defaultRadiusMeters)
	if distanceMeters > float64(radius) {
		return &FenceError{
			LocationID:     p.ID,
			LocationName:   p.Name,
			DistanceMeters: distanceMeters,
			RadiusMeters:   radius,
		}
	}
	return nil
}
