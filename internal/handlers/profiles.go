package handlers

import (
	"errors"
	"net/http"

	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/profiles"
)

// ProfileHandler serves profile pages.
type ProfileHandler struct {
	Profiles ProfileDirectory
}

// Get handles GET /api/v1/profiles/{username}.
func (h ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.Profiles.Lookup(ctx, r.PathValue("username"))
	if err != nil {
		if canceled(err) {
			w.WriteHeader(statusClientClosedRequest)
			return
		}
		logging.FromContext(ctx).Error("profile lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]profiles.Profile{"profile": profile})
}

// ToggleFollow handles POST /api/v1/profiles/{username}/follow.
func (h ProfileHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.Profiles.ToggleFollow(ctx, r.PathValue("username"))
	if err != nil {
		if errors.Is(err, profiles.ErrSelfFollow) {
			respondError(ctx, w, http.StatusBadRequest, "cannot follow yourself")
			return
		}
		respondError(ctx, w, http.StatusInternalServerError, "failed to update follow")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]profiles.Profile{"profile": profile})
}
