package websocket

import (
	"context"

	"notesync/internal/pkg/logger"
	"notesync/pkg/feed"
)

// Notifier drains the change feed into the hub, so every connected device of
// the affected user learns a collection changed. Remote instances' changes
// arrive here too, folded into the feed by the NATS bridge.
type Notifier struct {
	feed   *feed.Feed
	hub    *Hub
	logger logger.ILogger
}

func NewNotifier(changeFeed *feed.Feed, hub *Hub, log logger.ILogger) *Notifier {
	return &Notifier{feed: changeFeed, hub: hub, logger: log}
}

// Run blocks until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	changes, err := n.feed.Subscribe(ctx)
	if err != nil {
		return err
	}

	n.logger.Info("notifier", "started", nil)
	for change := range changes {
		n.hub.Notify(change.UserId, change)
	}
	n.logger.Info("notifier", "stopped", nil)
	return nil
}
