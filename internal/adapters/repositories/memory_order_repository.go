package repositories

import (
	"context"
	"courier-tracking-service/internal/domain"
	"slices"
	"sync"
)

// MemoryOrder is one order row held by MemoryOrderRepository.
type MemoryOrder struct {
	OrganizationID string
	CourierID      string
	Stop           domain.Stop
	GeocodeStatus  string
}

// In-memory order store for tests and local runs. Rows keep insertion order.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders []MemoryOrder
}

func NewMemoryOrderRepository(orders ...MemoryOrder) *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: orders}
}

func (r *MemoryOrderRepository) Add(o MemoryOrder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, o)
}

func (r *MemoryOrderRepository) ListCourierDeliveries(
	_ context.Context,
	orgID string,
	courierID string,
	statuses []string,
) ([]domain.Stop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Stop, 0, len(r.orders))
	for _, o := range r.orders {
		if o.OrganizationID != orgID || o.CourierID != courierID {
			continue
		}
		if !slices.Contains(statuses, o.Stop.Status) {
			continue
		}
		out = append(out, o.Stop)
	}

	return out, nil
}

func (r *MemoryOrderRepository) ListUngeocoded(_ context.Context, orgID string) ([]domain.GeocodeTarget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.GeocodeTarget, 0)
	for _, o := range r.orders {
		if o.OrganizationID != orgID || o.Stop.Geocoded() || o.Stop.Address == "" {
			continue
		}
		if o.GeocodeStatus == domain.GeocodeFailed {
			continue
		}
		out = append(out, domain.GeocodeTarget{OrderID: o.Stop.ID, Address: o.Stop.Address})
	}

	return out, nil
}

func (r *MemoryOrderRepository) SaveGeocodeResult(
	_ context.Context,
	orgID string,
	orderID string,
	coords *domain.Coordinates,
	status string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.orders {
		o := &r.orders[i]
		if o.OrganizationID != orgID || o.Stop.ID != orderID {
			continue
		}

		o.GeocodeStatus = status
		o.Stop.Lat, o.Stop.Lon = nil, nil
		if coords != nil {
			lat, lon := coords.Lat, coords.Lon
			o.Stop.Lat, o.Stop.Lon = &lat, &lon
		}
	}

	return nil
}

// Order returns a copy of the stored order, if present.
func (r *MemoryOrderRepository) Order(orgID, orderID string) (MemoryOrder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.OrganizationID == orgID && o.Stop.ID == orderID {
			return o, true
		}
	}
	return MemoryOrder{}, false
}
