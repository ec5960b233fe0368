// Package dialog serves the dialog endpoints
package dialog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Flock/internal/api/handlers"
	"Flock/internal/api/middleware"
	"Flock/internal/core/dialogs"
	"Flock/internal/core/messages"
	"Flock/internal/core/receipts"
)

// Handler serves /dialogs
type Handler struct {
	dialogs  dialogs.Service
	messages messages.Service
	receipts receipts.Coordinator
}

// NewHandler creates a dialog handler
func NewHandler(dialogService dialogs.Service, messageService messages.Service, coordinator receipts.Coordinator) *Handler {
	return &Handler{
		dialogs:  dialogService,
		messages: messageService,
		receipts: coordinator,
	}
}

// CreateDialogInput opens a dialog, optionally with a first message
type CreateDialogInput struct {
	Partner     string   `json:"partner"`
	Text        string   `json:"text,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// CreateDialogOutput is the created or existing dialog
type CreateDialogOutput struct {
	Dialog  *dialogs.Dialog       `json:"dialog"`
	Message *messages.MessageView `json:"message,omitempty"`
	Created bool                  `json:"created"`
}

// HandleList returns the caller's dialogs
// GET /dialogs
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	views, err := h.dialogs.ListDialogs(r.Context(), userID)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []*dialogs.DialogView{}
	}
	handlers.WriteJSON(w, http.StatusOK, views)
}

// HandleCreate finds or creates the dialog with partner
// POST /dialogs
//
// Request body: { "partner": "<user id>", "text": "...", "attachments": [] }
// Responds 201 when the dialog was created and 200 when it already existed.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	var input CreateDialogInput
	if !handlers.DecodeJSON(w, r, &input) {
		return
	}
	if input.Partner == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "partner is required")
		return
	}
	withMessage := input.Text != "" || len(input.Attachments) > 0
	if withMessage {
		if err := messages.ValidateContent(input.Text, input.Attachments); err != nil {
			handlers.WriteServiceError(w, r, err)
			return
		}
	}

	dialog, created, err := h.dialogs.FindOrCreateDialog(r.Context(), userID, input.Partner)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}

	out := CreateDialogOutput{Dialog: dialog, Created: created}
	if withMessage {
		out.Message, err = h.messages.SendMessage(r.Context(), userID, messages.SendMessageRequest{
			DialogID:    dialog.ID,
			Text:        input.Text,
			Attachments: input.Attachments,
		})
		if err != nil {
			handlers.WriteServiceError(w, r, err)
			return
		}
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	handlers.WriteJSON(w, status, out)
}

// HandleDelete removes a dialog the caller participates in
// DELETE /dialogs/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	if err := h.dialogs.DeleteDialog(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"message": "Dialog deleted"})
}

// HandleMarkRead marks every message the caller did not send as read
// POST /dialogs/{id}/read
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	updated, err := h.receipts.MarkRead(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// HandleUnreadCount counts dialogs whose last message is unread by the caller
// GET /dialogs/unread-count
func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	count, err := h.receipts.UnreadDialogCount(r.Context(), userID)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]int{"unreadDialogsCount": count})
}
