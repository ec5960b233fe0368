package post

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"Flock/internal/api/middleware"
	"Flock/internal/core/apperr"
	"Flock/internal/core/posts"
)

type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) CreatePost(ctx context.Context, authorID string, req posts.CreatePostRequest) (*posts.PostView, error) {
	args := m.Called(ctx, authorID, req)
	view, _ := args.Get(0).(*posts.PostView)
	return view, args.Error(1)
}

func (m *MockPostService) GetPost(ctx context.Context, postID string) (*posts.PostView, error) {
	args := m.Called(ctx, postID)
	view, _ := args.Get(0).(*posts.PostView)
	return view, args.Error(1)
}

func (m *MockPostService) ListUserPosts(ctx context.Context, userID string) ([]*posts.PostView, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]*posts.PostView)
	return list, args.Error(1)
}

func (m *MockPostService) ListPosts(ctx context.Context, page, limit int) (*posts.PostPage, error) {
	args := m.Called(ctx, page, limit)
	result, _ := args.Get(0).(*posts.PostPage)
	return result, args.Error(1)
}

func (m *MockPostService) DeletePost(ctx context.Context, requesterID, postID string) error {
	return m.Called(ctx, requesterID, postID).Error(0)
}

func (m *MockPostService) CreateComment(ctx context.Context, authorID, postID string, req posts.CreateCommentRequest) (*posts.CommentView, error) {
	args := m.Called(ctx, authorID, postID, req)
	view, _ := args.Get(0).(*posts.CommentView)
	return view, args.Error(1)
}

func newRouter(svc posts.Service) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.SetTestUserID(req.Context(), "alice")))
		})
	})
	r.Get("/posts", h.HandleList)
	r.Post("/posts", h.HandleCreate)
	r.Get("/posts/{id}", h.HandleGet)
	r.Get("/posts/user/{id}", h.HandleListByUser)
	r.Delete("/posts/{id}", h.HandleDelete)
	r.Post("/posts/{id}/comments", h.HandleComment)
	return r
}

func TestHandleCreate(t *testing.T) {
	svc := new(MockPostService)
	req := posts.CreatePostRequest{Text: "sunset", Images: []string{"https://img/1.jpg"}}
	svc.On("CreatePost", mock.Anything, "alice", req).
		Return(&posts.PostView{Post: &posts.Post{ID: "p1", AuthorID: "alice", Text: "sunset", Images: req.Images}}, nil)

	w := httptest.NewRecorder()
	body := `{"text":"sunset","images":["https://img/1.jpg"]}`
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"p1"`)
	svc.AssertExpectations(t)
}

func TestHandleCreate_Validation(t *testing.T) {
	svc := new(MockPostService)
	svc.On("CreatePost", mock.Anything, "alice", mock.Anything).
		Return(nil, apperr.NewValidationError("images", "at least one image is required"))

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", bytes.NewBufferString(`{"text":"x"}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at least one image")
}

func TestHandleDelete_NotAuthor(t *testing.T) {
	svc := new(MockPostService)
	svc.On("DeletePost", mock.Anything, "alice", "p1").Return(posts.ErrNotAuthor)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/posts/p1", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleComment_PostMissing(t *testing.T) {
	svc := new(MockPostService)
	svc.On("CreateComment", mock.Anything, "alice", "p404", posts.CreateCommentRequest{Message: "nice"}).
		Return(nil, posts.ErrPostNotFound)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/p404/comments", bytes.NewBufferString(`{"message":"nice"}`)))

	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertExpectations(t)
}

func TestHandleListByUser_EmptyIsArray(t *testing.T) {
	svc := new(MockPostService)
	svc.On("ListUserPosts", mock.Anything, "bob").Return([]*posts.PostView(nil), nil)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/user/bob", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandleList(t *testing.T) {
	svc := new(MockPostService)
	svc.On("ListPosts", mock.Anything, 2, 3).
		Return(&posts.PostPage{Posts: []*posts.PostView{{Post: &posts.Post{ID: "p4"}}}, Total: 7, Page: 2, Limit: 3}, nil)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts?page=2&limit=3", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Header().Get("X-Total-Count"))
	assert.Contains(t, w.Body.String(), `"id":"p4"`)
	svc.AssertExpectations(t)
}

func TestHandleList_BadPage(t *testing.T) {
	svc := new(MockPostService)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts?page=two", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ListPosts", mock.Anything, mock.Anything, mock.Anything)
}
