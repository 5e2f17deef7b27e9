package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "USER_LOGIN").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes published on the bus.
const (
	TypeUserLogin  = "USER_LOGIN"
	TypeUserLogout = "USER_LOGOUT"
	TypeSyncChange = "SYNC_CHANGE"
)

// NewSyncChange builds the cross-instance notification that a groups/notes
// row changed for a user. Origin identifies the publishing instance so the
// bridge can skip its own events.
func NewSyncChange(origin, collection string, userId uuid.UUID, groupId *uuid.UUID) BaseEvent {
	data := map[string]interface{}{
		"origin":     origin,
		"collection": collection,
		"user_id":    userId.String(),
	}
	if groupId != nil {
		data["group_id"] = groupId.String()
	}
	return BaseEvent{
		Type:       TypeSyncChange,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
