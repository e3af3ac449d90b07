// Package events broadcasts orchestrator lifecycle events to websocket
// subscribers (dashboards, monitors).
package events

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Kind tags a lifecycle event
type Kind string

const (
	SessionStarted Kind = "session.started"
	SessionStopped Kind = "session.stopped"
	MasterChanged  Kind = "role.master"
	SlaveAdded     Kind = "role.slave.added"
	SlaveRemoved   Kind = "role.slave.removed"
	CleanupDone    Kind = "cleanup"
)

// Event is one broadcast record
type Event struct {
	ID        string                 `json:"id"`
	Kind      Kind                   `json:"kind"`
	ProfileID int64                  `json:"profileId,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Time      time.Time              `json:"time"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans events out to connected clients. Slow or dead clients are
// dropped rather than blocking publishers.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Publish stamps and broadcasts an event. Never blocks on client errors.
func (h *Hub) Publish(e Event) {
	e.ID = uuid.New().String()
	e.Time = time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(e); err != nil {
			log.Printf("[events] dropping client: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// HandleConnection upgrades an HTTP request to a websocket subscription.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] failed to upgrade connection: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Drain the client; a read error means it went away.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[events] client read error: %v", err)
				}
				return
			}
		}
	}()
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
