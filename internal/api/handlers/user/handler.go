// Package user serves registration and profiles
package user

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Flock/internal/api/handlers"
	"Flock/internal/api/middleware"
	"Flock/internal/core/users"
)

// TokenIssuer signs an access token for a newly registered user
type TokenIssuer func(userID string) (string, error)

// Handler serves /users
type Handler struct {
	service users.UserService
	issue   TokenIssuer
}

// NewHandler creates a user handler
func NewHandler(service users.UserService, issue TokenIssuer) *Handler {
	return &Handler{service: service, issue: issue}
}

// RegisterOutput is the created user and its first access token
type RegisterOutput struct {
	User        *users.User `json:"user"`
	AccessToken string      `json:"accessToken"`
}

// HandleRegister creates a user
// POST /users
//
// Request body: { "username": "...", "fullname": "...", "email": "..." }
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req users.CreateUserRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}

	token, err := h.issue(user.ID)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, RegisterOutput{User: user, AccessToken: token})
}

// HandleGetProfile returns a profile with counts and the viewer's follow state
// GET /users/{user}
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "user"), middleware.GetUserID(r))
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, profile)
}

// HandleUpdate changes the caller's profile
// PUT /users/update
//
// Request body: { "fullname"?: "...", "username"?: "...", "website"?: "...", "bio"?: "..." }
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	var req users.UpdateUserRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), userID, req)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, user)
}

// HandleFind searches users by username or fullname
// GET /users/find?user=<query>
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.FindUsers(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, found)
}

// HandleSuggested returns users the caller does not follow yet
// GET /users/suggested/{max}
func (h *Handler) HandleSuggested(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	limit := 0
	if raw := chi.URLParam(r, "max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "max must be a positive integer")
			return
		}
		limit = n
	}

	suggested, err := h.service.GetSuggestedUsers(r.Context(), userID, limit)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, suggested)
}
