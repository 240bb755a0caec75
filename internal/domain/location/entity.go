package location

import "time"

// Location is static reference data for a geofenced work site.
// RadiusMeters is nil when the site uses the system default radius.
type Location struct {
	ID           string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
