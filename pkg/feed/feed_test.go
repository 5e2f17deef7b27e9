package feed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedRoundTrip(t *testing.T) {
	f := New()
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := f.Subscribe(ctx)
	require.NoError(t, err)

	userId := uuid.New()
	groupId := uuid.New()
	require.NoError(t, f.Publish(Change{
		Collection: CollectionNotes,
		UserId:     userId,
		GroupId:    &groupId,
	}))

	select {
	case change := <-changes:
		assert.Equal(t, CollectionNotes, change.Collection)
		assert.Equal(t, userId, change.UserId)
		require.NotNil(t, change.GroupId)
		assert.Equal(t, groupId, *change.GroupId)
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}
}

func TestFeedFanOut(t *testing.T) {
	f := New()
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := f.Subscribe(ctx)
	require.NoError(t, err)
	second, err := f.Subscribe(ctx)
	require.NoError(t, err)

	userId := uuid.New()
	require.NoError(t, f.Publish(Change{Collection: CollectionGroups, UserId: userId}))

	for _, changes := range []<-chan Change{first, second} {
		select {
		case change := <-changes:
			assert.Equal(t, userId, change.UserId)
			assert.Nil(t, change.GroupId)
		case <-time.After(2 * time.Second):
			t.Fatal("a subscriber missed the change")
		}
	}
}

func TestFeedClosesOnCancel(t *testing.T) {
	f := New()
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := f.Subscribe(ctx)
	require.NoError(t, err)

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("change channel not closed after cancel")
		}
	}
}
