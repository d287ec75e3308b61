package ports

import (
	"context"
	"courier-tracking-service/internal/domain"
)

// Contract for resolving a free-text address to coordinates.
type Geocoder interface {
	// Return coordinates for address, or domain.ErrGeocodeNotFound when
	// the provider has no match.
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}
