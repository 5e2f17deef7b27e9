package memory

import (
	"context"
	"testing"
	"time"

	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/pkg/backend"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signUp(t *testing.T, c *Client, email string) *entity.User {
	t.Helper()
	user, err := c.SignUp(context.Background(), email, "secret123")
	require.NoError(t, err)
	return user
}

func fetchNote(t *testing.T, c *Client, id uuid.UUID) *entity.Note {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	note, ok := c.notes[id]
	if !ok {
		t.Fatalf("note %s not found", id)
	}
	return copyNote(note)
}

func visibleNotes(t *testing.T, c *Client, userId uuid.UUID) []*entity.Note {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var result []*entity.Note
	for _, note := range c.notes {
		if note.UserId == userId && !note.IsDeleted {
			result = append(result, copyNote(note))
		}
	}
	return result
}

func strPtr(s string) *string { return &s }

func TestClientRequiresSession(t *testing.T) {
	ctx := context.Background()
	c := New()

	_, err := c.Groups().Insert(ctx, "Orphan", entity.GroupTypeNote)
	require.ErrorIs(t, err, errs.ErrNotAuthenticated)

	signUp(t, c, "alice@example.com")
	require.NoError(t, c.SignOut(ctx))

	_, err = c.Groups().Insert(ctx, "Orphan", entity.GroupTypeNote)
	require.ErrorIs(t, err, errs.ErrNotAuthenticated)
}

func TestClientOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	c := New()

	signUp(t, c, "alice@example.com")
	groupId, err := c.Groups().Insert(ctx, "Private", entity.GroupTypeNote)
	require.NoError(t, err)
	noteId, err := c.Notes().Insert(ctx, groupId, "Secret", "body", nil)
	require.NoError(t, err)

	signUp(t, c, "bob@example.com")
	err = c.Groups().Update(ctx, groupId, backend.GroupPatch{Title: strPtr("Taken over")})
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, c.Notes().SetDeleted(ctx, noteId, true), errs.ErrNotFound)
	_, err = c.Notes().Insert(ctx, groupId, "Planted", "", nil)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestClientRejectsUnknownGroupType(t *testing.T) {
	ctx := context.Background()
	c := New()
	signUp(t, c, "alice@example.com")

	_, err := c.Groups().Insert(ctx, "Weird", entity.GroupType("scrapbook"))
	require.Error(t, err)
}

func TestClientStampsAreStrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	c := New()
	signUp(t, c, "alice@example.com")
	groupId, err := c.Groups().Insert(ctx, "Stamps", entity.GroupTypeNote)
	require.NoError(t, err)

	noteId, err := c.Notes().Insert(ctx, groupId, "n", "", nil)
	require.NoError(t, err)

	var stamps []time.Time
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Notes().Update(ctx, noteId, backend.NotePatch{Content: strPtr("v")}))
		stamps = append(stamps, fetchNote(t, c, noteId).UpdatedAt)
	}
	assert.True(t, stamps[0].Before(stamps[1]))
	assert.True(t, stamps[1].Before(stamps[2]))
}

func TestClientItemsNilVersusEmpty(t *testing.T) {
	ctx := context.Background()
	c := New()
	signUp(t, c, "alice@example.com")
	groupId, err := c.Groups().Insert(ctx, "Mixed", entity.GroupTypeNote)
	require.NoError(t, err)

	plainId, err := c.Notes().Insert(ctx, groupId, "plain", "text", nil)
	require.NoError(t, err)
	listId, err := c.Notes().Insert(ctx, groupId, "list", "", []entity.NoteItem{})
	require.NoError(t, err)

	assert.Nil(t, fetchNote(t, c, plainId).Items)
	list := fetchNote(t, c, listId)
	require.NotNil(t, list.Items)
	assert.Len(t, list.Items, 0)
}

func TestClientGroupDeleteCascadesToNotes(t *testing.T) {
	ctx := context.Background()
	c := New()
	user := signUp(t, c, "alice@example.com")

	groupId, err := c.Groups().Insert(ctx, "Doomed", entity.GroupTypeNote)
	require.NoError(t, err)
	otherId, err := c.Groups().Insert(ctx, "Survivor", entity.GroupTypeNote)
	require.NoError(t, err)

	_, err = c.Notes().Insert(ctx, groupId, "member", "", nil)
	require.NoError(t, err)
	_, err = c.Notes().Insert(ctx, otherId, "outsider", "", nil)
	require.NoError(t, err)

	require.NoError(t, c.Groups().SetDeleted(ctx, groupId, true))
	notes := visibleNotes(t, c, user.Id)
	require.Len(t, notes, 1)
	assert.Equal(t, "outsider", notes[0].Title)

	require.NoError(t, c.Groups().SetDeleted(ctx, groupId, false))
	assert.Len(t, visibleNotes(t, c, user.Id), 2)
}

func TestClientPurgeHonorsCutoff(t *testing.T) {
	ctx := context.Background()
	c := New()
	user := signUp(t, c, "alice@example.com")
	groupId, err := c.Groups().Insert(ctx, "Trash", entity.GroupTypeNote)
	require.NoError(t, err)

	oldId, err := c.Notes().Insert(ctx, groupId, "old", "", nil)
	require.NoError(t, err)
	freshId, err := c.Notes().Insert(ctx, groupId, "fresh", "", nil)
	require.NoError(t, err)
	require.NoError(t, c.Notes().SetDeleted(ctx, oldId, true))
	require.NoError(t, c.Notes().SetDeleted(ctx, freshId, true))

	// Age the first deletion past the retention window.
	c.mu.Lock()
	aged := time.Now().Add(-48 * time.Hour)
	c.notes[oldId].DeletedAt = &aged
	c.mu.Unlock()

	purged, err := c.Notes().Purge(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, c.Notes().SetDeleted(ctx, freshId, false))
	notes := visibleNotes(t, c, user.Id)
	require.Len(t, notes, 1)
	assert.Equal(t, "fresh", notes[0].Title)
}

func TestClientSubscriptionClosesOnCancel(t *testing.T) {
	c := New()
	user := signUp(t, c, "alice@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	snapshots, err := c.Groups().Subscribe(ctx, user.Id)
	require.NoError(t, err)

	select {
	case <-snapshots:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-snapshots:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("snapshot channel not closed after cancel")
		}
	}
}

func TestClientCoalescesBursts(t *testing.T) {
	ctx := context.Background()
	c := New()
	user := signUp(t, c, "alice@example.com")

	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	snapshots, err := c.Groups().Subscribe(subCtx, user.Id)
	require.NoError(t, err)
	<-snapshots

	for i := 0; i < 5; i++ {
		_, err := c.Groups().Insert(ctx, "g", entity.GroupTypeNote)
		require.NoError(t, err)
	}

	// However many pushes arrive, the final one carries all five groups.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case snap := <-snapshots:
			require.NoError(t, snap.Err)
			if len(snap.Groups) == 5 {
				return
			}
		case <-time.After(50 * time.Millisecond):
		}
	}
	t.Fatal("never observed the full collection")
}
