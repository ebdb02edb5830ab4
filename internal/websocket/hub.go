// Package websocket pushes analyze lifecycle events to connected UI
// clients, so a front end can show progress without polling.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pcrcli/pkg/contracts/domain"
)

// Analyze lifecycle event types.
const (
	TypeAnalyzeStarted  = "analyze:started"
	TypeFormatDetected  = "analyze:format_detected"
	TypeAnalyzeComplete = "analyze:complete"
	TypeAnalyzeFailed   = "analyze:failed"
)

// Event is one analyze lifecycle notification.
type Event struct {
	ID        string              `json:"id"`
	Type      string              `json:"type"`
	Path      string              `json:"path,omitempty"`
	Format    domain.VendorFormat `json:"format,omitempty"`
	Wells     int                 `json:"wells,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}

	logger *slog.Logger
}

// NewHub creates a new Hub instance.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
}

// Start launches the hub loop; calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()
	go h.run()
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()
	close(h.quit)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("Hub shut down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Client connected", slog.Int("active_clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Client disconnected", slog.Int("active_clients", count))

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than block the hub.
					go func(c *Client) { h.unregister <- c }(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends an event to every connected client. Events are fire and
// forget: a hub with no clients simply drops them.
func (h *Hub) Broadcast(event Event) {
	event.ID = uuid.New().String()
	event.Timestamp = time.Now().UTC()
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event", slog.String("error", err.Error()))
		return
	}
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Broadcast buffer full, dropping event", slog.String("type", event.Type))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
