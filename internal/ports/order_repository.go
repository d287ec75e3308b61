package ports

import (
	"context"
	"courier-tracking-service/internal/domain"
)

// Port: read access to the external order store.
type OrderRepository interface {
	// Retrieve the courier's deliveries whose status is one of statuses.
	ListCourierDeliveries(ctx context.Context, orgID, courierID string, statuses []string) ([]domain.Stop, error)
}

// Port: geocoding bookkeeping on orders.
type GeocodeTargetRepository interface {
	// Retrieve orders that have an address but no coordinates and no FAILED mark.
	ListUngeocoded(ctx context.Context, orgID string) ([]domain.GeocodeTarget, error)
	// Record the outcome for one order. coords is nil when status is FAILED.
	SaveGeocodeResult(ctx context.Context, orgID, orderID string, coords *domain.Coordinates, status string) error
}
