package handlers

import (
	"context"
	"courier-tracking-service/internal/api/dto"
	"courier-tracking-service/internal/services"
	"errors"
	"net/http"
	"time"
)

// GeocodeRunner is satisfied by *services.GeocodeBatcher.
type GeocodeRunner interface {
	Run(ctx context.Context, orgID string) (services.GeocodeBatchResult, error)
}

type GeocodeHandler struct {
	// Nil when no geocoding provider is configured.
	Batcher GeocodeRunner
	// MaxDuration caps one run so the counts are written before the server's
	// write timeout. Zero means no cap.
	MaxDuration time.Duration
}

// Run geocodes the organization's orders that still lack coordinates.
// A run cut short by MaxDuration answers with the partial counts; the
// remaining orders are picked up by the next run.
func (h *GeocodeHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Batcher == nil {
		writeError(w, r, http.StatusServiceUnavailable, "geocoding is not configured")
		return
	}

	id, _ := IdentityFrom(r.Context())

	ctx := r.Context()
	if h.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.MaxDuration)
		defer cancel()
	}

	res, err := h.Batcher.Run(ctx, id.OrganizationID)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		writeInternal(w, r, "geocode batch failed", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.GeocodeBatchResponse{
		Total:     res.Total,
		Processed: res.Processed,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	})
}
