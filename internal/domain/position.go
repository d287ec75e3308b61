package domain

import "time"

// Represents a single accepted GPS observation for a courier.
// Positions are immutable once written to history.
type Position struct {
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	CourierID      string    `json:"courierId" db:"courier_id"`
	Lat            float64   `json:"lat" db:"lat"`
	Lon            float64   `json:"lon" db:"lon"`
	Accuracy       *float64  `json:"accuracy,omitempty" db:"accuracy"`
	ActiveOrderID  *string   `json:"activeOrderId,omitempty" db:"active_order_id"`
	RecordedAt     time.Time `json:"recordedAt" db:"recorded_at"`
}

func (p Position) Coordinates() Coordinates {
	return Coordinates{Lon: p.Lon, Lat: p.Lat}
}

// PositionReport is the raw payload sent by a courier device.
// Lat and Lon are pointers so that a missing field can be told apart from zero.
type PositionReport struct {
	Lat           *float64
	Lon           *float64
	Accuracy      *float64
	ActiveOrderID *string
}

// Validate checks that the report carries usable coordinates.
func (r PositionReport) Validate() error {
	if r.Lat == nil || r.Lon == nil {
		return ErrInvalidPosition
	}
	if !(Coordinates{Lon: *r.Lon, Lat: *r.Lat}).Valid() {
		return ErrInvalidPosition
	}
	return nil
}

// Courier metadata owned by the user directory and joined for dashboards.
type Courier struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Phone string `json:"phone" db:"phone"`
}

// CourierPosition is a latest position joined with its courier.
type CourierPosition struct {
	Position
	CourierName  string    `json:"courierName" db:"courier_name"`
	CourierPhone string    `json:"courierPhone" db:"courier_phone"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
