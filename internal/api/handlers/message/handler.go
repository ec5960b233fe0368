// Package message serves the message endpoints
package message

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Flock/internal/api/handlers"
	"Flock/internal/api/middleware"
	"Flock/internal/core/messages"
)

// Handler serves /messages
type Handler struct {
	service messages.Service
}

// NewHandler creates a message handler
func NewHandler(service messages.Service) *Handler {
	return &Handler{service: service}
}

// HandleList returns a dialog's messages oldest first and marks them read
// GET /messages?dialog={id}
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	dialogID := r.URL.Query().Get("dialog")
	if dialogID == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "dialog parameter is required")
		return
	}

	list, err := h.service.ListMessages(r.Context(), dialogID, userID)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*messages.MessageView{}
	}
	handlers.WriteJSON(w, http.StatusOK, list)
}

// HandleCreate sends a message
// POST /messages
//
// Request body: { "dialogId": "...", "text": "...", "attachments": [] }
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	var req messages.SendMessageRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	view, err := h.service.SendMessage(r.Context(), userID, req)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, view)
}

// HandleDelete deletes a message the caller sent
// DELETE /messages/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	if err := h.service.DeleteMessage(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"message": "Message deleted"})
}
