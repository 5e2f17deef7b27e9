package websocket

import (
	"encoding/json"
	"sync"

	"notesync/internal/pkg/logger"
	"notesync/pkg/feed"

	"github.com/google/uuid"
)

// SyncMessage is the wire form of a change notification. It names what moved
// so the client knows which collection to re-query; it never carries rows.
type SyncMessage struct {
	Type       string     `json:"type"`
	Collection string     `json:"collection"`
	GroupId    *uuid.UUID `json:"group_id,omitempty"`
}

type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("hub", "client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("hub", "client completely unregistered", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify tells every connection of one user that a collection changed. Slow
// consumers are dropped rather than allowed to block the hub.
func (h *Hub) Notify(userID uuid.UUID, change feed.Change) {
	data, _ := json.Marshal(SyncMessage{
		Type:       "sync_change",
		Collection: change.Collection,
		GroupId:    change.GroupId,
	})

	h.mu.RLock()
	clients := h.clients[userID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("hub", "client send buffer full, dropping connection", map[string]interface{}{"user_id": userID})
			h.unregister <- client
		}
	}
}
