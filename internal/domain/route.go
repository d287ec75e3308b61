package domain

import "time"

// Represents a single stop in an optimized courier route.
// Position is the 1-based visiting index.
type RouteStop struct {
	Stop
	Position int `json:"position"`
}

// Represents the optimized visiting order for one courier.
// CourierLocation is the start point used, or nil when the courier has not
// reported yet (the first stop then served as the origin).
type RouteResult struct {
	Stops           []RouteStop  `json:"stops"`
	TotalDistanceKm float64      `json:"totalDistanceKm"`
	CourierLocation *Coordinates `json:"courierLocation"`
}

// CachedRoute is a RouteResult held by a cache until ExpiresAt.
type CachedRoute struct {
	Result    RouteResult `json:"result"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Clone returns a copy that shares no slices or pointers with r.
func (r RouteResult) Clone() RouteResult {
	out := RouteResult{TotalDistanceKm: r.TotalDistanceKm}
	if r.Stops != nil {
		out.Stops = make([]RouteStop, len(r.Stops))
		copy(out.Stops, r.Stops)
		for i := range out.Stops {
			out.Stops[i].Lat = copyFloat(r.Stops[i].Lat)
			out.Stops[i].Lon = copyFloat(r.Stops[i].Lon)
		}
	}
	if r.CourierLocation != nil {
		c := *r.CourierLocation
		out.CourierLocation = &c
	}
	return out
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
