package handlers

import (
	"errors"
	"net/http"

	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/models"
	"github.com/picshare/backend/internal/notifications"
)

// NotificationHandler serves the activity list.
type NotificationHandler struct {
	Notifications NotificationService
}

// List handles GET /api/v1/notifications. The seed is loaded on first use or
// when ?refresh=true is passed.
func (h NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items := h.Notifications.List()
	if !h.Notifications.Loaded() || r.URL.Query().Get("refresh") == "true" {
		var err error
		items, err = h.Notifications.Fetch(ctx)
		if err != nil {
			if canceled(err) {
				w.WriteHeader(statusClientClosedRequest)
				return
			}
			logging.FromContext(ctx).Error("load notifications failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to load notifications")
			return
		}
	}
	if items == nil {
		items = []models.Notification{}
	}

	respondJSON(ctx, w, http.StatusOK, notificationsResponse{
		Notifications: items,
		UnreadCount:   h.Notifications.UnreadCount(),
	})
}

// MarkRead handles POST /api/v1/notifications/{id}/read.
func (h NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Notifications.MarkRead(r.PathValue("id")); err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "notification not found")
			return
		}
		respondError(ctx, w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]int{"unreadCount": h.Notifications.UnreadCount()})
}

// MarkAllRead handles POST /api/v1/notifications/read.
func (h NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	h.Notifications.MarkAllRead()
	respondJSON(r.Context(), w, http.StatusOK, map[string]int{"unreadCount": h.Notifications.UnreadCount()})
}

type notificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
}
