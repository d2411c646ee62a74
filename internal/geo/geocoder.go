package geo

import (
	"context"

	"github.com/dukerupert/souk/internal/domain"
)

// Geocoder maps free-text addresses to coordinates.
// Implementations can use Google, Mapbox, Nominatim, etc.
type Geocoder interface {
	// Geocode resolves address text. Failures are returned as *GeoError or
	// wrapped transport errors; callers treat both as "no coordinates".
	Geocode(ctx context.Context, addressText string) (*Location, error)
}

// Location is a geocoding result.
type Location struct {
	Coordinates      domain.Coordinates
	FormattedAddress string
}
