package routes

import (
	"github.com/go-chi/chi/v5"

	"Flock/internal/api/handlers/dialog"
	"Flock/internal/api/handlers/message"
	"Flock/internal/api/middleware"
	"Flock/internal/core/dialogs"
	"Flock/internal/core/messages"
	"Flock/internal/core/receipts"
)

// RegisterDialogRoutes registers dialog and message endpoints. All of them require authentication.
func RegisterDialogRoutes(r chi.Router, dialogService dialogs.Service, messageService messages.Service,
	coordinator receipts.Coordinator, authMiddleware *middleware.JWTAuthMiddleware,
) {
	dialogHandler := dialog.NewHandler(dialogService, messageService, coordinator)
	messageHandler := message.NewHandler(messageService)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Get("/dialogs", dialogHandler.HandleList)
		r.Post("/dialogs", dialogHandler.HandleCreate)
		r.Get("/dialogs/unread-count", dialogHandler.HandleUnreadCount)
		r.Delete("/dialogs/{id}", dialogHandler.HandleDelete)
		r.Post("/dialogs/{id}/read", dialogHandler.HandleMarkRead)

		r.Get("/messages", messageHandler.HandleList)
		r.Post("/messages", messageHandler.HandleCreate)
		r.Delete("/messages/{id}", messageHandler.HandleDelete)
	})
}
