package handlers

import (
	"context"
	"courier-tracking-service/internal/api/dto"
	"courier-tracking-service/internal/domain"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// RouteGetter is satisfied by *services.RouteService.
type RouteGetter interface {
	GetRoute(ctx context.Context, orgID, courierID string) (*domain.RouteResult, error)
}

type RouteHandler struct {
	Service RouteGetter
}

// Get returns the optimized delivery route for one courier.
func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	courierID := strings.TrimSpace(chi.URLParam(r, "courierID"))
	if courierID == "" {
		writeError(w, r, http.StatusBadRequest, "courier id is required")
		return
	}

	route, err := h.Service.GetRoute(r.Context(), id.OrganizationID, courierID)
	if err != nil {
		writeInternal(w, r, "get route failed", err)
		return
	}

	res := dto.RouteResponse{
		CourierID:       courierID,
		Stops:           make([]dto.RouteStopResponse, 0, len(route.Stops)),
		TotalDistanceKm: route.TotalDistanceKm,
	}
	if route.CourierLocation != nil {
		res.CourierLocation = &dto.CoordinatesResponse{
			Lat: route.CourierLocation.Lat,
			Lon: route.CourierLocation.Lon,
		}
	}
	for _, s := range route.Stops {
		// Routed stops are always geocoded.
		res.Stops = append(res.Stops, dto.RouteStopResponse{
			ID:         s.ID,
			Position:   s.Position,
			Lat:        *s.Lat,
			Lon:        *s.Lon,
			Address:    s.Address,
			Status:     s.Status,
			ClientName: s.ClientName,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
