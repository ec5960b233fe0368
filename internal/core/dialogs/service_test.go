package dialogs

import (
	"context"
	"sync"
	"testing"

	"Flock/internal/core/apperr"
	"Flock/internal/core/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDialogRepo struct {
	mu      sync.Mutex
	dialogs map[string]*Dialog
}

func newFakeDialogRepo() *fakeDialogRepo {
	return &fakeDialogRepo{dialogs: make(map[string]*Dialog)}
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (r *fakeDialogRepo) GetOrCreate(ctx context.Context, dialog *Dialog) (*Dialog, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(dialog.AuthorID, dialog.PartnerID)
	for _, d := range r.dialogs {
		if pairKey(d.AuthorID, d.PartnerID) == key {
			return d, false, nil
		}
	}
	r.dialogs[dialog.ID] = dialog
	return dialog, true, nil
}

func (r *fakeDialogRepo) GetByID(ctx context.Context, id string) (*Dialog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dialogs[id]
	if !ok {
		return nil, ErrDialogNotFound
	}
	return d, nil
}

func (r *fakeDialogRepo) ListForUser(ctx context.Context, userID string) ([]*DialogView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*DialogView
	for _, d := range r.dialogs {
		if d.HasParticipant(userID) {
			out = append(out, &DialogView{Dialog: d})
		}
	}
	return out, nil
}

func (r *fakeDialogRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dialogs[id]; !ok {
		return ErrDialogNotFound
	}
	delete(r.dialogs, id)
	return nil
}

type fakeUsers map[string]*users.User

func (f fakeUsers) GetByID(ctx context.Context, id string) (*users.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, users.ErrUserNotFound
}

type recordingNotifier struct {
	mu      sync.Mutex
	created []*Dialog
}

func (n *recordingNotifier) DialogCreated(dialog *Dialog) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, dialog)
}

func newTestService() (Service, *fakeDialogRepo, *recordingNotifier) {
	repo := newFakeDialogRepo()
	notifier := &recordingNotifier{}
	people := fakeUsers{
		"alice": {ID: "alice", Username: "alice"},
		"bob":   {ID: "bob", Username: "bob"},
		"carol": {ID: "carol", Username: "carol"},
	}
	return NewService(repo, people, notifier, nil), repo, notifier
}

func TestFindOrCreateDialog_CreatesOnce(t *testing.T) {
	service, _, notifier := newTestService()
	ctx := context.Background()

	first, created, err := service.FindOrCreateDialog(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, first.LastMessageID)

	again, created, err := service.FindOrCreateDialog(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	require.Len(t, notifier.created, 1)
	assert.Equal(t, first.ID, notifier.created[0].ID)
}

func TestFindOrCreateDialog_UnorderedPair(t *testing.T) {
	service, _, notifier := newTestService()
	ctx := context.Background()

	ab, created, err := service.FindOrCreateDialog(ctx, "alice", "bob")
	require.NoError(t, err)
	require.True(t, created)

	ba, created, err := service.FindOrCreateDialog(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, created, "(B,A) must resolve to the dialog opened as (A,B)")
	assert.Equal(t, ab.ID, ba.ID)
	assert.Len(t, notifier.created, 1)
}

func TestFindOrCreateDialog_Validation(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	_, _, err := service.FindOrCreateDialog(ctx, "alice", "alice")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = service.FindOrCreateDialog(ctx, "alice", " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = service.FindOrCreateDialog(ctx, "alice", "nobody")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindOrCreateDialog_SkipsNotifyWhenRequestGone(t *testing.T) {
	service, repo, notifier := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dialog, created, err := service.FindOrCreateDialog(ctx, "alice", "carol")

	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, repo.dialogs, dialog.ID, "the dialog is persisted even though the client left")
	assert.Empty(t, notifier.created)
}

func TestDeleteDialog(t *testing.T) {
	service, repo, _ := newTestService()
	ctx := context.Background()

	dialog, _, err := service.FindOrCreateDialog(ctx, "alice", "bob")
	require.NoError(t, err)

	err = service.DeleteDialog(ctx, "carol", dialog.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, service.DeleteDialog(ctx, "bob", dialog.ID))
	assert.NotContains(t, repo.dialogs, dialog.ID)

	err = service.DeleteDialog(ctx, "bob", dialog.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRequireParticipant(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	dialog, _, err := service.FindOrCreateDialog(ctx, "alice", "bob")
	require.NoError(t, err)

	got, err := service.RequireParticipant(ctx, dialog.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Counterpart("alice"))
	assert.Equal(t, "alice", got.Counterpart("bob"))

	_, err = service.RequireParticipant(ctx, dialog.ID, "carol")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = service.RequireParticipant(ctx, "", "alice")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
