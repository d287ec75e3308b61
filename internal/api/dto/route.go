package dto

type CoordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type RouteStopResponse struct {
	ID         string  `json:"id"`
	Position   int     `json:"position"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Address    string  `json:"address"`
	Status     string  `json:"status"`
	ClientName string  `json:"clientName"`
}

type RouteResponse struct {
	CourierID       string               `json:"courierId"`
	Stops           []RouteStopResponse  `json:"stops"`
	TotalDistanceKm float64              `json:"totalDistanceKm"`
	CourierLocation *CoordinatesResponse `json:"courierLocation"`
}

type GeocodeBatchResponse struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
