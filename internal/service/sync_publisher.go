package service

import (
	"context"

	"notesync/internal/pkg/logger"
	"notesync/pkg/events"
	"notesync/pkg/feed"
	pktNats "notesync/pkg/nats"

	"github.com/google/uuid"
)

// ISyncPublisher announces an acknowledged groups/notes mutation. The local
// feed drives in-process live subscriptions; the NATS event reaches other
// instances, which fold it back into their own feeds.
type ISyncPublisher interface {
	Announce(ctx context.Context, collection string, userId uuid.UUID, groupId *uuid.UUID)
}

type syncPublisher struct {
	feed           *feed.Feed
	eventPublisher *pktNats.Publisher
	instanceId     string
	log            logger.ILogger
}

func NewSyncPublisher(changeFeed *feed.Feed, eventPublisher *pktNats.Publisher, instanceId string, log logger.ILogger) ISyncPublisher {
	return &syncPublisher{
		feed:           changeFeed,
		eventPublisher: eventPublisher,
		instanceId:     instanceId,
		log:            log,
	}
}

// Announce never fails the mutation that triggered it; a dead broker only
// delays convergence on other instances.
func (p *syncPublisher) Announce(ctx context.Context, collection string, userId uuid.UUID, groupId *uuid.UUID) {
	change := feed.Change{Collection: collection, UserId: userId, GroupId: groupId}
	if err := p.feed.Publish(change); err != nil {
		p.log.Warn("sync_publisher", "failed to publish local change", map[string]interface{}{
			"collection": collection,
			"error":      err.Error(),
		})
	}

	if p.eventPublisher == nil {
		return
	}
	evt := events.NewSyncChange(p.instanceId, collection, userId, groupId)
	if err := p.eventPublisher.Publish(ctx, evt); err != nil {
		p.log.Warn("sync_publisher", "failed to publish sync event", map[string]interface{}{
			"collection": collection,
			"error":      err.Error(),
		})
	}
}
