package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/internal/pkg/logger"
	"notesync/pkg/backend/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupStoreVisibleCollection(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	user := signedUpUser(t, client, "alice@example.com")
	store := newGroupStore(t, client, user)

	id1, err := store.AddGroup(ctx, "First", entity.GroupTypeNote)
	require.NoError(t, err)
	id2, err := store.AddGroup(ctx, "Second", entity.GroupTypeTodo)
	require.NoError(t, err)
	id3, err := store.AddGroup(ctx, "Third", entity.GroupTypeIdeas)
	require.NoError(t, err)

	waitFor(t, func() bool { return len(store.Groups()) == 3 }, "three groups visible")

	// Most recently touched first.
	groups := store.Groups()
	assert.Equal(t, id3, groups[0].Id)
	assert.Equal(t, id2, groups[1].Id)
	assert.Equal(t, id1, groups[2].Id)
	for i := 1; i < len(groups); i++ {
		assert.False(t, groups[i].UpdatedAt.After(groups[i-1].UpdatedAt))
	}

	// Soft delete hides without destroying.
	require.NoError(t, store.DeleteGroup(ctx, id2))
	waitFor(t, func() bool { return len(store.Groups()) == 2 }, "deleted group hidden")
	for _, g := range store.Groups() {
		assert.NotEqual(t, id2, g.Id)
		assert.Equal(t, user.Id, g.UserId)
		assert.False(t, g.IsDeleted)
	}

	// Restore brings it back on top; its UpdatedAt advanced.
	require.NoError(t, store.RestoreGroup(ctx, id2))
	waitFor(t, func() bool { return len(store.Groups()) == 3 }, "restored group visible")
	assert.Equal(t, id2, store.Groups()[0].Id)
}

func TestGroupStoreDeleteRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	user := signedUpUser(t, client, "alice@example.com")
	store := newGroupStore(t, client, user)

	id, err := store.AddGroup(ctx, "Projects", entity.GroupTypeGoals)
	require.NoError(t, err)
	waitFor(t, func() bool { return len(store.Groups()) == 1 }, "group visible")
	before := *store.Groups()[0]

	require.NoError(t, store.DeleteGroup(ctx, id))
	waitFor(t, func() bool { return len(store.Groups()) == 0 }, "group hidden")

	require.NoError(t, store.RestoreGroup(ctx, id))
	waitFor(t, func() bool { return len(store.Groups()) == 1 }, "group restored")

	after := *store.Groups()[0]
	assert.Equal(t, before.Id, after.Id)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.Type, after.Type)
	assert.Equal(t, before.CreatedBy, after.CreatedBy)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.Nil(t, after.DeletedAt)
	assert.False(t, after.IsDeleted)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestGroupStoreUserSwitchRaceFreedom(t *testing.T) {
	ctx := context.Background()
	client := memory.New()

	alice := signedUpUser(t, client, "alice@example.com")
	store := NewGroupStore(client, logger.NewNop())
	defer store.Close()

	store.SetUser(&alice.Id, alice.Email)
	_, err := store.AddGroup(ctx, "Alice Stuff", entity.GroupTypeNote)
	require.NoError(t, err)
	waitFor(t, func() bool { return len(store.Groups()) == 1 }, "alice's group visible")

	bob := signedUpUser(t, client, "bob@example.com")
	_, err = client.Groups().Insert(ctx, "Bob Stuff", entity.GroupTypeNote)
	require.NoError(t, err)

	// From the instant the switch begins, no push may surface alice's rows.
	store.SetUser(&bob.Id, bob.Email)
	deadline := time.Now().Add(150 * time.Millisecond)
	sawBob := false
	for time.Now().Before(deadline) {
		for _, g := range store.Groups() {
			require.Equal(t, bob.Id, g.UserId, "stale row from previous user leaked through")
			sawBob = true
		}
		time.Sleep(time.Millisecond)
	}
	assert.True(t, sawBob, "bob's subscription never converged")
}

func TestGroupStoreTeardownOnSignOut(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	user := signedUpUser(t, client, "alice@example.com")
	store := newGroupStore(t, client, user)

	_, err := store.AddGroup(ctx, "Before", entity.GroupTypeNote)
	require.NoError(t, err)
	waitFor(t, func() bool { return len(store.Groups()) == 1 }, "group visible")

	// Teardown clears immediately, not after the next push.
	store.SetUser(nil, "")
	assert.Empty(t, store.Groups())
	assert.False(t, store.Loading())

	// A mutation arriving after teardown must not repopulate the store.
	_, err = client.Groups().Insert(ctx, "After", entity.GroupTypeNote)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, store.Groups())
}

func TestGroupStoreMutationErrors(t *testing.T) {
	ctx := context.Background()
	client := memory.New()

	store := NewGroupStore(client, logger.NewNop())
	defer store.Close()

	// No user: inactive store refuses mutations and records the failure.
	_, err := store.AddGroup(ctx, "Orphan", entity.GroupTypeNote)
	require.ErrorIs(t, err, errs.ErrNotAuthenticated)
	assert.Equal(t, errs.ErrNotAuthenticated.Error(), store.Err())

	// Unknown row: error surfaces to the caller and lands in Err().
	user := signedUpUser(t, client, "alice@example.com")
	store.SetUser(&user.Id, user.Email)
	err = store.UpdateGroup(ctx, user.Id, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.NotEmpty(t, store.Err())
}

func TestGroupStoreNotifiesListeners(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	user := signedUpUser(t, client, "alice@example.com")

	store := NewGroupStore(client, logger.NewNop())
	defer store.Close()

	notified := make(chan struct{}, 16)
	store.OnChange(func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	store.SetUser(&user.Id, user.Email)
	_, err := store.AddGroup(ctx, "Watched", entity.GroupTypeNote)
	require.NoError(t, err)

	waitFor(t, func() bool { return len(notified) > 0 }, "change callback fired")
}
