// Package notify pushes queue-state changes to connected front-desk and
// doctor screens over WebSockets. The only contract of the queue_updated
// event is "re-fetch the queue"; it carries no payload.
package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventQueueUpdated = "queue_updated"
	EventOnlineStatus = "online_status"
)

// Event is a named signal sent to every connected client.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a single connected screen, joined under a role.
type Client struct {
	Role string
	Send chan []byte
	conn Conn
}

// Hub tracks connected clients and their roles. Registration and
// unregistration are the only lifecycle events; role counts are derived from
// the live set, never from detached global state.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     log,
	}
}

// Register adds a client and announces the new online counts.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.broadcast(Event{Type: EventOnlineStatus, Timestamp: time.Now(), Data: h.OnlineCounts()})
}

// Unregister removes a client, closes its send channel, and announces the
// new online counts.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.Send)
	h.mu.Unlock()

	h.broadcast(Event{Type: EventOnlineStatus, Timestamp: time.Now(), Data: h.OnlineCounts()})
}

// QueueUpdated broadcasts the queue-changed signal. It never blocks: clients
// with a full buffer are skipped.
func (h *Hub) QueueUpdated() {
	h.broadcast(Event{Type: EventQueueUpdated, Timestamp: time.Now()})
}

func (h *Hub) broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Type).Msg("marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip rather than block the broadcast.
		}
	}
}

// OnlineCounts returns how many clients are connected per role.
func (h *Hub) OnlineCounts() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	counts := make(map[string]int)
	for client := range h.clients {
		counts[client.Role]++
	}
	return counts
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
