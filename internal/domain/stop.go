package domain

// Delivery statuses that make an order eligible for routing.
const (
	StatusAssembled  = "ASSEMBLED"
	StatusOnDelivery = "ON_DELIVERY"
)

// RoutableStatuses lists the order statuses included in a courier route.
var RoutableStatuses = []string{StatusAssembled, StatusOnDelivery}

// Geocoding outcome recorded on an order.
const (
	GeocodeOK     = "OK"
	GeocodeFailed = "FAILED"
)

// Stop is a delivery destination borrowed from the order store for one
// route computation. Lat/Lon are nil when the address was never geocoded.
type Stop struct {
	ID         string   `json:"id" db:"id"`
	Lat        *float64 `json:"lat" db:"lat"`
	Lon        *float64 `json:"lon" db:"lon"`
	Address    string   `json:"address" db:"address"`
	Status     string   `json:"status" db:"status"`
	ClientName string   `json:"clientName" db:"client_name"`
}

// Geocoded reports whether the stop carries both coordinates.
func (s Stop) Geocoded() bool { return s.Lat != nil && s.Lon != nil }

// GeocodeTarget is an order address waiting to be resolved.
type GeocodeTarget struct {
	OrderID string `db:"id"`
	Address string `db:"address"`
}
