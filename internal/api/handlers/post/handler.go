// Package post serves post and comment endpoints
package post

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Flock/internal/api/handlers"
	"Flock/internal/api/middleware"
	"Flock/internal/core/posts"
)

// Handler serves /posts
type Handler struct {
	service posts.Service
}

// NewHandler creates a post handler
func NewHandler(service posts.Service) *Handler {
	return &Handler{service: service}
}

// HandleCreate creates a post
// POST /posts
//
// Request body: { "text": "...", "images": ["https://..."] }
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	var req posts.CreatePostRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	view, err := h.service.CreatePost(r.Context(), userID, req)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, view)
}

// HandleGet returns one post
// GET /posts/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, view)
}

// HandleList pages through every post newest first
// GET /posts?page=1&limit=6
//
// The total is also sent as X-Total-Count.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(w, r, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	result, err := h.service.ListPosts(r.Context(), page, limit)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	handlers.WriteJSON(w, http.StatusOK, result)
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// HandleListByUser returns a user's posts newest first
// GET /posts/user/{id}
func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUserPosts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*posts.PostView{}
	}
	handlers.WriteJSON(w, http.StatusOK, list)
}

// HandleDelete deletes a post the caller wrote
// DELETE /posts/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	if err := h.service.DeletePost(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

// HandleComment adds a comment to a post
// POST /posts/{id}/comments
//
// Request body: { "message": "..." }
func (h *Handler) HandleComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	var req posts.CreateCommentRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	view, err := h.service.CreateComment(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, view)
}
