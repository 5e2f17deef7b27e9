package service

import (
	"context"
	"fmt"

	"notesync/internal/pkg/logger"
	"notesync/pkg/events"
	"notesync/pkg/feed"
	pktNats "notesync/pkg/nats"

	"github.com/google/uuid"
)

// IBridgeService folds change events published by OTHER instances into the
// local feed, so local live subscriptions and websocket clients converge on
// writes that happened anywhere in the cluster.
type IBridgeService interface {
	Start() error
}

type bridgeService struct {
	subscriber *pktNats.Subscriber
	feed       *feed.Feed
	instanceId string
	log        logger.ILogger
}

func NewBridgeService(subscriber *pktNats.Subscriber, changeFeed *feed.Feed, instanceId string, log logger.ILogger) IBridgeService {
	return &bridgeService{
		subscriber: subscriber,
		feed:       changeFeed,
		instanceId: instanceId,
		log:        log,
	}
}

func (s *bridgeService) Start() error {
	subject := fmt.Sprintf("events.%s", events.TypeSyncChange)
	// Instance-scoped durable, so every instance sees every change instead of
	// the stream load-balancing them away.
	durable := fmt.Sprintf("sync-bridge-%s", s.instanceId)
	return s.subscriber.Subscribe(subject, durable, s.handle)
}

func (s *bridgeService) handle(ctx context.Context, event events.Event) error {
	data := event.Payload()

	origin, _ := data["origin"].(string)
	if origin == s.instanceId {
		// Our own write; the local feed already saw it.
		return nil
	}

	collection, _ := data["collection"].(string)
	userIdStr, _ := data["user_id"].(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		s.log.Warn("bridge_service", "dropping event without valid user_id", map[string]interface{}{"payload": data})
		return nil
	}

	var groupId *uuid.UUID
	if raw, ok := data["group_id"].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			groupId = &id
		}
	}

	change := feed.Change{Collection: collection, UserId: userId, GroupId: groupId}
	if err := s.feed.Publish(change); err != nil {
		return err
	}

	s.log.Debug("bridge_service", "folded remote change into feed", map[string]interface{}{
		"collection": collection,
		"user_id":    userId,
		"origin":     origin,
	})
	return nil
}
