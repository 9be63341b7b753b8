package handlers

import (
	"errors"
	"net/http"

	"github.com/picshare/backend/internal/settings"
)

// SettingsHandler serves the notification and privacy toggles.
type SettingsHandler struct {
	Settings SettingsStore
}

// Get handles GET /api/v1/settings/{group}.
func (h SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	toggles, err := h.Settings.Get(settings.Group(r.PathValue("group")))
	if err != nil {
		respondError(ctx, w, http.StatusNotFound, "unknown settings group")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string][]settings.Toggle{"settings": toggles})
}

// Toggle handles POST /api/v1/settings/{group} with {"name": ...}.
func (h SettingsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	enabled, err := h.Settings.Toggle(settings.Group(r.PathValue("group")), req.Name)
	switch {
	case errors.Is(err, settings.ErrUnknownGroup):
		respondError(ctx, w, http.StatusNotFound, "unknown settings group")
	case errors.Is(err, settings.ErrUnknownSetting):
		respondError(ctx, w, http.StatusBadRequest, "unknown setting")
	case err != nil:
		respondError(ctx, w, http.StatusInternalServerError, "failed to update setting")
	default:
		respondJSON(ctx, w, http.StatusOK, settings.Toggle{Name: req.Name, Enabled: enabled})
	}
}

type toggleRequest struct {
	Name string `json:"name"`
}
