package handlers

import (
	"courier-tracking-service/internal/api/dto"
	"courier-tracking-service/internal/domain"
	"courier-tracking-service/internal/ports"
	"courier-tracking-service/internal/services"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// DefaultHistoryWindow is how far back history reads go without ?since.
const DefaultHistoryWindow = 24 * time.Hour

type LocationHandler struct {
	Store     ports.LocationStore
	Retention time.Duration
	Now       func() time.Time
}

func (h *LocationHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Report accepts a GPS fix from the calling courier.
func (h *LocationHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	var req dto.ReportPositionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pos, err := h.Store.Report(r.Context(), id.OrganizationID, id.UserID, domain.PositionReport{
		Lat:           req.Lat,
		Lon:           req.Lon,
		Accuracy:      req.Accuracy,
		ActiveOrderID: req.ActiveOrderID,
	})
	if errors.Is(err, domain.ErrInvalidPosition) {
		writeError(w, r, http.StatusBadRequest, "lat and lon are required numbers")
		return
	}
	if err != nil {
		writeInternal(w, r, "report position failed", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toPositionResponse(pos))
}

// Me returns the calling courier's latest position, or null.
func (h *LocationHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	pos, err := h.Store.GetLatest(r.Context(), id.OrganizationID, id.UserID)
	if err != nil {
		writeInternal(w, r, "get latest position failed", err)
		return
	}

	res := dto.MyPositionResponse{}
	if pos != nil {
		p := toPositionResponse(*pos)
		res.Position = &p
	}
	writeJSON(w, r, http.StatusOK, res)
}

// All lists the latest position of every courier in the caller's organization.
func (h *LocationHandler) All(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	rows, err := h.Store.GetAllLatest(r.Context(), id.OrganizationID)
	if err != nil {
		writeInternal(w, r, "list latest positions failed", err)
		return
	}

	res := dto.ListCourierPositionsResponse{Couriers: make([]dto.CourierPositionResponse, 0, len(rows))}
	for _, cp := range rows {
		res.Couriers = append(res.Couriers, dto.CourierPositionResponse{
			PositionResponse: toPositionResponse(cp.Position),
			CourierName:      cp.CourierName,
			CourierPhone:     cp.CourierPhone,
			UpdatedAt:        cp.UpdatedAt,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

// History returns one courier's positions since ?since (RFC 3339), oldest first.
func (h *LocationHandler) History(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	courierID := strings.TrimSpace(chi.URLParam(r, "courierID"))
	if courierID == "" {
		writeError(w, r, http.StatusBadRequest, "courier id is required")
		return
	}

	since := h.now().Add(-DefaultHistoryWindow)
	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = t
	}

	rows, err := h.Store.GetHistorySince(r.Context(), id.OrganizationID, courierID, since)
	if err != nil {
		writeInternal(w, r, "get position history failed", err)
		return
	}

	res := dto.HistoryResponse{
		CourierID: courierID,
		Since:     since.UTC(),
		Positions: make([]dto.PositionResponse, 0, len(rows)),
	}
	for _, p := range rows {
		res.Positions = append(res.Positions, toPositionResponse(p))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Cleanup deletes the organization's history older than the retention window.
func (h *LocationHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	deleted, err := services.PurgeHistory(r.Context(), h.Store, id.OrganizationID, h.Retention, h.now())
	if err != nil {
		writeInternal(w, r, "purge history failed", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.CleanupResponse{Deleted: deleted})
}

func toPositionResponse(p domain.Position) dto.PositionResponse {
	return dto.PositionResponse{
		CourierID:     p.CourierID,
		Lat:           p.Lat,
		Lon:           p.Lon,
		Accuracy:      p.Accuracy,
		ActiveOrderID: p.ActiveOrderID,
		RecordedAt:    p.RecordedAt,
	}
}
