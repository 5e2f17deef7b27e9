package sync

import (
	"context"
	"testing"
	"time"

	"notesync/internal/entity"
	"notesync/internal/pkg/logger"
	"notesync/pkg/backend/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// waitFor polls until cond holds or the deadline passes. Subscription pushes
// are asynchronous, so observable state is always checked through here.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func signedUpUser(t *testing.T, client *memory.Client, email string) *entity.User {
	t.Helper()
	user, err := client.SignUp(context.Background(), email, "secret123")
	require.NoError(t, err)
	return user
}

func newGroupStore(t *testing.T, client *memory.Client, user *entity.User) *GroupStore {
	t.Helper()
	store := NewGroupStore(client, logger.NewNop())
	store.SetUser(&user.Id, user.Email)
	t.Cleanup(store.Close)
	return store
}

func newNoteStore(t *testing.T, client *memory.Client, user *entity.User, groupId *entity.Group) *NoteStore {
	t.Helper()
	store := NewNoteStore(client, logger.NewNop())
	var gid *uuid.UUID
	if groupId != nil {
		gid = &groupId.Id
	}
	store.SetScope(&user.Id, gid)
	t.Cleanup(store.Close)
	return store
}
