package dto

import "time"

// Lat and Lon are pointers so a missing field is rejected instead of read as zero.
type ReportPositionRequest struct {
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
	Accuracy      *float64 `json:"accuracy"`
	ActiveOrderID *string  `json:"activeOrderId"`
}

type PositionResponse struct {
	CourierID     string    `json:"courierId"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	Accuracy      *float64  `json:"accuracy"`
	ActiveOrderID *string   `json:"activeOrderId"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// MyPositionResponse carries a null position until the courier first reports.
type MyPositionResponse struct {
	Position *PositionResponse `json:"position"`
}

type CourierPositionResponse struct {
	PositionResponse
	CourierName  string    `json:"courierName"`
	CourierPhone string    `json:"courierPhone"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ListCourierPositionsResponse struct {
	Couriers []CourierPositionResponse `json:"couriers"`
}

type HistoryResponse struct {
	CourierID string             `json:"courierId"`
	Since     time.Time          `json:"since"`
	Positions []PositionResponse `json:"positions"`
}

type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}
