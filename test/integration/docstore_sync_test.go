package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"notesync/internal/config"
	"notesync/internal/entity"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/unitofwork"
	"notesync/pkg/backend/docstore"
	"notesync/pkg/database"
	"notesync/pkg/feed"
	"notesync/pkg/sync"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDocstoreSync runs the embedded sync stack end to end against a real
// database: the docstore client, the change feed, and the client-side stores
// on top.
func TestDocstoreSync(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("DB_CONNECTION_STRING not set; skipping database integration test")
	}
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	changeFeed := feed.New()
	defer changeFeed.Close()
	client := docstore.New(unitofwork.NewRepositoryFactory(db), changeFeed, logger.NewNop())

	ctx := context.Background()
	email := fmt.Sprintf("embedded-%s@example.com", uuid.NewString()[:8])

	session, err := sync.NewSession(client, logger.NewNop())
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.SignUp(ctx, email, "secret123"))
	user := session.User()
	require.NotNil(t, user)

	groups := sync.NewGroupStore(client, logger.NewNop())
	defer groups.Close()
	groups.SetUser(&user.Id, user.Email)

	groupId, err := groups.AddGroup(ctx, "Groceries", entity.GroupTypeShopping)
	require.NoError(t, err)
	waitForCond(t, func() bool {
		for _, g := range groups.Groups() {
			if g.Id == groupId {
				return true
			}
		}
		return false
	}, "group visible through live subscription")

	notes := sync.NewNoteStore(client, logger.NewNop())
	defer notes.Close()
	notes.SetScope(&user.Id, &groupId)

	noteId, err := notes.AddNote(ctx, "Weekly run", "", []entity.NoteItem{})
	require.NoError(t, err)
	waitForCond(t, func() bool { return len(notes.Notes()) == 1 }, "note visible")

	require.NoError(t, notes.AddItem(ctx, noteId, "Milk"))
	waitForCond(t, func() bool {
		ns := notes.Notes()
		return len(ns) == 1 && len(ns[0].Items) == 1
	}, "checklist item persisted and pushed back")
	assert.Equal(t, "Milk", notes.Notes()[0].Items[0].Text)

	// Deleting the group cascades to its notes, and both subscriptions see it.
	require.NoError(t, groups.DeleteGroup(ctx, groupId))
	waitForCond(t, func() bool { return len(notes.Notes()) == 0 }, "cascade hid the note")
	waitForCond(t, func() bool {
		for _, g := range groups.Groups() {
			if g.Id == groupId {
				return false
			}
		}
		return true
	}, "group hidden")

	require.NoError(t, session.SignOut(ctx))
	assert.Nil(t, session.User())
}

func waitForCond(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
