package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"greenmap/metrics"

	"github.com/apex/log"
)

// Message types pushed to live clients.
const (
	ReportCreated = "report_created"
	ReportUpdated = "report_updated"
)

// BroadcastMessage is the envelope of every live update.
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub manages WebSocket connections and broadcasting
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages for every client
	broadcast chan []byte

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Closed when Run returns
	done     chan struct{}
	doneOnce sync.Once

	mutex sync.RWMutex

	connectedClients int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer h.doneOnce.Do(func() { close(h.done) })
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.setConnected()
			h.mutex.Unlock()
			return

		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client] = true
			h.setConnected()
			h.mutex.Unlock()
			log.Infof("Client connected. Total clients: %d", h.ClientCount())

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.setConnected()
			}
			h.mutex.Unlock()
			log.Infof("Client disconnected. Total clients: %d", h.ClientCount())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop it.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.setConnected()
			h.mutex.Unlock()
		}
	}
}

// RegisterClient hands a client to the hub. It returns false once the hub
// has stopped.
func (h *Hub) RegisterClient(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient removes a client; it is a no-op once the hub has stopped.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// setConnected must be called with h.mutex held.
func (h *Hub) setConnected() {
	h.connectedClients = len(h.clients)
	metrics.WebsocketClients.Set(float64(h.connectedClients))
}

// Broadcast queues a typed message for every connected client. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) Broadcast(msgType string, data interface{}) {
	message := BroadcastMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		log.WithError(err).Error("Failed to marshal broadcast message")
		return
	}

	select {
	case h.broadcast <- payload:
		log.Debugf("Queued %s broadcast for %d clients", msgType, h.ClientCount())
	default:
		log.Warnf("Broadcast queue full, dropping %s message", msgType)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients
}
