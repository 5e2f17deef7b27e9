package sync

import (
	"context"
	"testing"
	"time"

	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/internal/pkg/logger"
	"notesync/pkg/backend/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeGroup(t *testing.T, client *memory.Client, groupType entity.GroupType) uuid.UUID {
	t.Helper()
	id, err := client.Groups().Insert(context.Background(), "Container", groupType)
	require.NoError(t, err)
	return id
}

func TestNoteStoreAddNote(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	user := signedUpUser(t, client, "alice@example.com")
	groupId := makeGroup(t, client, entity.GroupTypeNote)

	store := NewNoteStore(client, logger.NewNop())
	defer store.Close()
	store.SetScope(&user.Id, &groupId)

	id, err := store.AddNote(ctx, "Shopping plan", "eggs and flour", nil)
	require.NoError(t, err)

	waitFor(t, func() bool { return len(store.Notes()) == 1 }, "note visible")

	note := store.Notes()[0]
	assert.Equal(t, id, note.Id)
	assert.Equal(t, "Shopping plan", note.Title)
	assert.Equal(t, "eggs and flour", note.Content)
	assert.True(t, note.CreatedAt.Equal(note.UpdatedAt), "fresh note has createdAt == updatedAt")
	assert.Nil(t, note.Items, "plain note must not carry an items field")
}

func TestNoteStoreChecklistScenario(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	user := signedUpUser(t, client, "alice@example.com")

	gStore := newGroupStore(t, client, user)
	groupId, err := gStore.AddGroup(ctx, "Groceries", entity.GroupTypeShopping)
	require.NoError(t, err)

	nStore := NewNoteStore(client, logger.NewNop())
	defer nStore.Close()
	nStore.SetScope(&user.Id, &groupId)

	noteId, err := nStore.AddNote(ctx, "Weekly run", "", []entity.NoteItem{})
	require.NoError(t, err)
	waitFor(t, func() bool { return len(nStore.Notes()) == 1 }, "note visible")
	require.NotNil(t, nStore.Notes()[0].Items, "checklist note keeps its empty items array")
	require.Len(t, nStore.Notes()[0].Items, 0)

	require.NoError(t, nStore.AddItem(ctx, noteId, "Milk"))
	waitFor(t, func() bool {
		notes := nStore.Notes()
		return len(notes) == 1 && len(notes[0].Items) == 1
	}, "item added")

	item := nStore.Notes()[0].Items[0]
	assert.Equal(t, "Milk", item.Text)
	assert.False(t, item.Completed)

	require.NoError(t, nStore.ToggleItem(ctx, noteId, item.Id))
	waitFor(t, func() bool {
		notes := nStore.Notes()
		return len(notes) == 1 && len(notes[0].Items) == 1 && notes[0].Items[0].Completed
	}, "item toggled")

	toggled := nStore.Notes()[0].Items[0]
	assert.Equal(t, item.Id, toggled.Id, "toggle must not change the item id")
	assert.Equal(t, item.Text, toggled.Text, "toggle must not change the text")

	require.NoError(t, nStore.RemoveItem(ctx, noteId, item.Id))
	waitFor(t, func() bool {
		notes := nStore.Notes()
		return len(notes) == 1 && len(notes[0].Items) == 0
	}, "item removed")
}

func TestNoteStoreIdempotentUpdate(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	user := signedUpUser(t, client, "alice@example.com")
	groupId := makeGroup(t, client, entity.GroupTypeNote)

	store := NewNoteStore(client, logger.NewNop())
	defer store.Close()
	store.SetScope(&user.Id, &groupId)

	id, err := store.AddNote(ctx, "Same", "words", nil)
	require.NoError(t, err)
	waitFor(t, func() bool { return len(store.Notes()) == 1 }, "note visible")
	created := store.Notes()[0].UpdatedAt

	require.NoError(t, store.UpdateNote(ctx, id, "Same", "words", nil))
	waitFor(t, func() bool { return store.Notes()[0].UpdatedAt.After(created) }, "first update converged")
	first := store.Notes()[0].UpdatedAt

	require.NoError(t, store.UpdateNote(ctx, id, "Same", "words", nil))
	waitFor(t, func() bool { return store.Notes()[0].UpdatedAt.After(first) }, "second update converged")

	note := store.Notes()[0]
	assert.Equal(t, "Same", note.Title)
	assert.Equal(t, "words", note.Content)
	assert.True(t, note.UpdatedAt.After(first), "same-value updates still advance updatedAt")
}

func TestNoteStoreGroupSwitchCancelsOldSubscription(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	user := signedUpUser(t, client, "alice@example.com")
	groupA := makeGroup(t, client, entity.GroupTypeNote)
	groupB := makeGroup(t, client, entity.GroupTypeNote)

	store := NewNoteStore(client, logger.NewNop())
	defer store.Close()

	store.SetScope(&user.Id, &groupA)
	_, err := store.AddNote(ctx, "In A", "", nil)
	require.NoError(t, err)
	waitFor(t, func() bool { return len(store.Notes()) == 1 }, "note in A visible")

	_, err = client.Notes().Insert(ctx, groupB, "In B", "", nil)
	require.NoError(t, err)

	store.SetScope(&user.Id, &groupB)
	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		for _, n := range store.Notes() {
			require.Equal(t, groupB, n.GroupId, "stale note from previous group leaked through")
		}
		time.Sleep(time.Millisecond)
	}
	waitFor(t, func() bool { return len(store.Notes()) == 1 }, "note in B visible")
}

func TestNoteStoreSoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	user := signedUpUser(t, client, "alice@example.com")
	groupId := makeGroup(t, client, entity.GroupTypeNote)

	store := NewNoteStore(client, logger.NewNop())
	defer store.Close()
	store.SetScope(&user.Id, &groupId)

	id, err := store.AddNote(ctx, "Keep me", "around", nil)
	require.NoError(t, err)
	waitFor(t, func() bool { return len(store.Notes()) == 1 }, "note visible")

	require.NoError(t, store.DeleteNote(ctx, id))
	waitFor(t, func() bool { return len(store.Notes()) == 0 }, "note hidden")

	require.NoError(t, store.RestoreNote(ctx, id))
	waitFor(t, func() bool { return len(store.Notes()) == 1 }, "note restored")
	assert.Equal(t, "around", store.Notes()[0].Content)
}

func TestNoteStoreScopeErrors(t *testing.T) {
	ctx := context.Background()
	client := memory.New()

	store := NewNoteStore(client, logger.NewNop())
	defer store.Close()

	_, err := store.AddNote(ctx, "Nowhere", "", nil)
	require.ErrorIs(t, err, errs.ErrNotAuthenticated)

	user := signedUpUser(t, client, "alice@example.com")
	store.SetScope(&user.Id, nil)
	_, err = store.AddNote(ctx, "No group", "", nil)
	require.ErrorIs(t, err, errs.ErrNoGroupSelected)
	assert.Equal(t, errs.ErrNoGroupSelected.Error(), store.Err())
}

func TestNoteStoreAllNotesScope(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	user := signedUpUser(t, client, "alice@example.com")
	groupA := makeGroup(t, client, entity.GroupTypeNote)
	groupB := makeGroup(t, client, entity.GroupTypeNote)

	_, err := client.Notes().Insert(ctx, groupA, "A note", "", nil)
	require.NoError(t, err)
	_, err = client.Notes().Insert(ctx, groupB, "B note", "", nil)
	require.NoError(t, err)

	store := NewNoteStore(client, logger.NewNop())
	defer store.Close()
	store.SetScope(&user.Id, nil)

	waitFor(t, func() bool { return len(store.Notes()) == 2 }, "all-notes scope sees both groups")
}
