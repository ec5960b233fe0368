package dialog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Flock/internal/api/middleware"
	"Flock/internal/core/dialogs"
	"Flock/internal/core/messages"
)

type mockDialogService struct {
	findOrCreateFunc func(ctx context.Context, actorID, partnerID string) (*dialogs.Dialog, bool, error)
	deleteFunc       func(ctx context.Context, requesterID, dialogID string) error
	listFunc         func(ctx context.Context, userID string) ([]*dialogs.DialogView, error)
}

func (m *mockDialogService) FindOrCreateDialog(ctx context.Context, actorID, partnerID string) (*dialogs.Dialog, bool, error) {
	return m.findOrCreateFunc(ctx, actorID, partnerID)
}

func (m *mockDialogService) ListDialogs(ctx context.Context, userID string) ([]*dialogs.DialogView, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockDialogService) DeleteDialog(ctx context.Context, requesterID, dialogID string) error {
	return m.deleteFunc(ctx, requesterID, dialogID)
}

func (m *mockDialogService) GetDialog(ctx context.Context, dialogID string) (*dialogs.Dialog, error) {
	return nil, dialogs.ErrDialogNotFound
}

func (m *mockDialogService) RequireParticipant(ctx context.Context, dialogID, userID string) (*dialogs.Dialog, error) {
	return nil, dialogs.ErrDialogNotFound
}

type mockMessageService struct {
	sent []messages.SendMessageRequest
}

func (m *mockMessageService) SendMessage(ctx context.Context, senderID string, req messages.SendMessageRequest) (*messages.MessageView, error) {
	m.sent = append(m.sent, req)
	return &messages.MessageView{Message: &messages.Message{ID: "m1", DialogID: req.DialogID, UserID: senderID, Text: req.Text}}, nil
}

func (m *mockMessageService) DeleteMessage(ctx context.Context, requesterID, messageID string) error {
	return nil
}

func (m *mockMessageService) ListMessages(ctx context.Context, dialogID, requesterID string) ([]*messages.MessageView, error) {
	return nil, nil
}

type mockCoordinator struct {
	markReadFunc func(ctx context.Context, dialogID, readerID string) (int64, error)
	unread       int
}

func (m *mockCoordinator) MarkRead(ctx context.Context, dialogID, readerID string) (int64, error) {
	return m.markReadFunc(ctx, dialogID, readerID)
}

func (m *mockCoordinator) MarkDialogRead(ctx context.Context, d *dialogs.Dialog, readerID string) (int64, error) {
	return 0, nil
}

func (m *mockCoordinator) UnreadDialogCount(ctx context.Context, userID string) (int, error) {
	return m.unread, nil
}

func newRouter(h *Handler, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != "" {
				req = req.WithContext(middleware.SetTestUserID(req.Context(), userID))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/dialogs", h.HandleList)
	r.Post("/dialogs", h.HandleCreate)
	r.Get("/dialogs/unread-count", h.HandleUnreadCount)
	r.Delete("/dialogs/{id}", h.HandleDelete)
	r.Post("/dialogs/{id}/read", h.HandleMarkRead)
	return r
}

func TestHandleCreate_CreatedThenExisting(t *testing.T) {
	created := true
	svc := &mockDialogService{
		findOrCreateFunc: func(ctx context.Context, actorID, partnerID string) (*dialogs.Dialog, bool, error) {
			assert.Equal(t, "alice", actorID)
			assert.Equal(t, "bob", partnerID)
			wasCreated := created
			created = false
			return &dialogs.Dialog{ID: "d1", AuthorID: actorID, PartnerID: partnerID}, wasCreated, nil
		},
	}
	msgs := &mockMessageService{}
	router := newRouter(NewHandler(svc, msgs, &mockCoordinator{}), "alice")

	for _, want := range []int{http.StatusCreated, http.StatusOK} {
		req := httptest.NewRequest(http.MethodPost, "/dialogs", bytes.NewBufferString(`{"partner":"bob"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, want, w.Code)
		var out CreateDialogOutput
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, "d1", out.Dialog.ID)
		assert.Nil(t, out.Message)
	}
	assert.Empty(t, msgs.sent)
}

func TestHandleCreate_WithFirstMessage(t *testing.T) {
	svc := &mockDialogService{
		findOrCreateFunc: func(ctx context.Context, actorID, partnerID string) (*dialogs.Dialog, bool, error) {
			return &dialogs.Dialog{ID: "d1", AuthorID: actorID, PartnerID: partnerID}, true, nil
		},
	}
	msgs := &mockMessageService{}
	router := newRouter(NewHandler(svc, msgs, &mockCoordinator{}), "alice")

	req := httptest.NewRequest(http.MethodPost, "/dialogs", bytes.NewBufferString(`{"partner":"bob","text":"hi"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, msgs.sent, 1)
	assert.Equal(t, "d1", msgs.sent[0].DialogID)
	assert.Equal(t, "hi", msgs.sent[0].Text)
}

func TestHandleCreate_Errors(t *testing.T) {
	svc := &mockDialogService{
		findOrCreateFunc: func(ctx context.Context, actorID, partnerID string) (*dialogs.Dialog, bool, error) {
			return nil, false, dialogs.ErrSelfDialog
		},
	}

	tests := []struct {
		name   string
		userID string
		body   string
		status int
	}{
		{name: "unauthenticated", body: `{"partner":"bob"}`, status: http.StatusUnauthorized},
		{name: "bad json", userID: "alice", body: `{`, status: http.StatusBadRequest},
		{name: "missing partner", userID: "alice", body: `{}`, status: http.StatusBadRequest},
		{name: "self dialog", userID: "alice", body: `{"partner":"alice"}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(NewHandler(svc, &mockMessageService{}, &mockCoordinator{}), tt.userID)
			req := httptest.NewRequest(http.MethodPost, "/dialogs", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandleCreate_InvalidFirstMessageOpensNothing(t *testing.T) {
	for name, body := range map[string]string{
		"blank text":       `{"partner":"bob","text":"   "}`,
		"blank attachment": `{"partner":"bob","attachments":[" "]}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := &mockDialogService{
				findOrCreateFunc: func(ctx context.Context, actorID, partnerID string) (*dialogs.Dialog, bool, error) {
					t.Fatal("dialog must not be opened for an invalid first message")
					return nil, false, nil
				},
			}
			msgs := &mockMessageService{}
			router := newRouter(NewHandler(svc, msgs, &mockCoordinator{}), "alice")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/dialogs", bytes.NewBufferString(body)))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, msgs.sent)
		})
	}
}

func TestHandleDelete_MapsErrors(t *testing.T) {
	tests := []struct {
		err    error
		name   string
		status int
	}{
		{name: "deleted", status: http.StatusOK},
		{name: "not participant", err: dialogs.ErrNotParticipant, status: http.StatusForbidden},
		{name: "missing", err: dialogs.ErrDialogNotFound, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockDialogService{
				deleteFunc: func(ctx context.Context, requesterID, dialogID string) error {
					assert.Equal(t, "d9", dialogID)
					return tt.err
				},
			}
			router := newRouter(NewHandler(svc, &mockMessageService{}, &mockCoordinator{}), "alice")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/dialogs/d9", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandleMarkReadAndUnreadCount(t *testing.T) {
	coord := &mockCoordinator{
		unread: 3,
		markReadFunc: func(ctx context.Context, dialogID, readerID string) (int64, error) {
			assert.Equal(t, "d1", dialogID)
			assert.Equal(t, "bob", readerID)
			return 2, nil
		},
	}
	router := newRouter(NewHandler(&mockDialogService{}, &mockMessageService{}, coord), "bob")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/dialogs/d1/read", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":2}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dialogs/unread-count", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unreadDialogsCount":3}`, w.Body.String())
}

func TestHandleList_EmptyIsArray(t *testing.T) {
	router := newRouter(NewHandler(&mockDialogService{}, &mockMessageService{}, &mockCoordinator{}), "alice")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dialogs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
