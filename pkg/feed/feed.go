// Package feed is the in-process change bus behind live subscriptions. Every
// acknowledged mutation publishes a Change; each live subscription listens,
// re-queries its filter and pushes a complete snapshot downstream.
package feed

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const (
	CollectionGroups = "groups"
	CollectionNotes  = "notes"

	topicChanges = "sync.changes"
)

// Change names what moved, not what the new data is. Subscribers always
// re-query, so a change notification can never deliver stale rows.
type Change struct {
	Collection string     `json:"collection"`
	UserId     uuid.UUID  `json:"user_id"`
	GroupId    *uuid.UUID `json:"group_id,omitempty"`
}

type Feed struct {
	pubSub *gochannel.GoChannel
}

func New() *Feed {
	return &Feed{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{},
			watermill.NewStdLogger(false, false),
		),
	}
}

func (f *Feed) Publish(change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return f.pubSub.Publish(topicChanges, msg)
}

// Subscribe returns a channel of changes. The channel is closed when ctx is
// cancelled; no change is delivered after that.
func (f *Feed) Subscribe(ctx context.Context) (<-chan Change, error) {
	messages, err := f.pubSub.Subscribe(ctx, topicChanges)
	if err != nil {
		return nil, err
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		for msg := range messages {
			var change Change
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				msg.Ack() // drop malformed payloads, nothing to retry
				continue
			}
			msg.Ack()
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (f *Feed) Close() error {
	return f.pubSub.Close()
}
