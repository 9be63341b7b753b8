package handlers

import (
	"net/http"
	"time"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	Started time.Time
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	payload := map[string]any{"status": "ok"}
	if !h.Started.IsZero() {
		payload["uptimeSeconds"] = int64(time.Since(h.Started).Seconds())
	}
	respondJSON(r.Context(), w, http.StatusOK, payload)
}
