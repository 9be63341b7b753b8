package handlers

import (
	"errors"
	"net/http"

	"github.com/picshare/backend/internal/conversations"
	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/models"
)

// ChatHandler serves the direct message threads.
type ChatHandler struct {
	Chats ConversationService
}

// List handles GET /api/v1/chats.
func (h ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chats, err := h.Chats.FetchChats(ctx)
	if err != nil {
		h.failed(w, r, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, chatsResponse{Chats: chats, UnreadTotal: h.Chats.UnreadTotal()})
}

// Active handles GET /api/v1/chats/active, the chat opened most recently.
func (h ChatHandler) Active(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chat, ok := h.Chats.ActiveChat()
	if !ok {
		respondError(ctx, w, http.StatusNotFound, "no chat is open")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]models.Chat{"chat": chat})
}

// Get handles GET /api/v1/chats/{id}. Opening a chat marks it read.
func (h ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chat, err := h.Chats.FetchChat(ctx, r.PathValue("id"))
	if err != nil {
		h.failed(w, r, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]models.Chat{"chat": chat})
}

// Send handles POST /api/v1/chats/{id}/messages.
func (h ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.Chats.SendMessage(ctx, r.PathValue("id"), req.Text)
	if err != nil {
		h.failed(w, r, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, map[string]models.Message{"message": message})
}

// MarkRead handles POST /api/v1/chats/{id}/read.
func (h ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Chats.MarkRead(r.PathValue("id")); err != nil {
		h.failed(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h ChatHandler) failed(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, conversations.ErrEmptyText):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, conversations.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "chat not found")
	case errors.Is(err, conversations.ErrSuperseded):
		respondError(ctx, w, http.StatusConflict, "a newer chat was opened")
	case canceled(err):
		w.WriteHeader(statusClientClosedRequest)
	default:
		logging.FromContext(ctx).Error("chat request failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load chats")
	}
}

type chatsResponse struct {
	Chats       []models.Chat `json:"chats"`
	UnreadTotal int           `json:"unreadTotal"`
}

type messageRequest struct {
	Text string `json:"text"`
}
