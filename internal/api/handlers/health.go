package handlers

import (
	"context"
	"courier-tracking-service/internal/platform/obs"
	"net/http"
	"time"
)

type HealthHandler struct {
	// Optional dependency check, usually the database ping.
	Ping func(ctx context.Context) error
}

// Health reports liveness, and readiness of the pinged dependency when set.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			obs.Logger(r.Context()).WithError(err).Warn("health ping failed")
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
