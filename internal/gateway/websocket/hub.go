// Package websocket provides the WebSocket gateway: request dispatch for
// every operation plus server-pushed notifications.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	ws "github.com/a2adesk/a2adesk/pkg/websocket"
)

// clientSendTimeout bounds how long the hub waits on one client's full
// buffer before disconnecting it.
const clientSendTimeout = 5 * time.Second

// Hub manages all WebSocket client connections
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// Single consumer; notifications leave in the order they were queued.
	broadcast chan *ws.Message

	dispatcher *ws.Dispatcher

	// Actions handled off the client's read loop.
	concurrentMu sync.RWMutex
	concurrent   map[string]bool

	sendTimeout time.Duration

	mu     sync.RWMutex
	logger *logger.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(dispatcher *ws.Dispatcher, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:   make(chan *ws.Message, 256),
		dispatcher:  dispatcher,
		concurrent:  make(map[string]bool),
		sendTimeout: clientSendTimeout,
		logger:      log.WithFields(zap.String("component", "ws_hub")),
	}
}

// SetConcurrent marks actions whose handlers may block for long (upstream
// calls, streams). Clients run them in their own goroutine.
func (h *Hub) SetConcurrent(actions ...string) {
	h.concurrentMu.Lock()
	defer h.concurrentMu.Unlock()
	for _, a := range actions {
		h.concurrent[a] = true
	}
}

func (h *Hub) isConcurrent(action string) bool {
	h.concurrentMu.RLock()
	defer h.concurrentMu.RUnlock()
	return h.concurrent[action]
}

// Run starts the hub's main processing loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer h.logger.Info("WebSocket hub stopped")

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("Client registered", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closeSend()
	}
	h.logger.Debug("Client unregistered", zap.String("client_id", client.ID))
}

// broadcastMessage hands msg to every client, in order. A client whose
// buffer stays full for sendTimeout is disconnected rather than skipped, so a
// connected client never misses a notification.
func (h *Hub) broadcastMessage(msg *ws.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.clients {
		if !client.enqueue(data, h.sendTimeout) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Client too slow, disconnecting",
			zap.String("client_id", client.ID),
			zap.String("action", msg.Action))
		h.removeClient(client)
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues a notification for all connected clients. It blocks
// while the queue is full unless ctx is done first.
func (h *Hub) Broadcast(ctx context.Context, msg *ws.Message) error {
	select {
	case h.broadcast <- msg:
		return nil
	default:
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetDispatcher returns the message dispatcher
func (h *Hub) GetDispatcher() *ws.Dispatcher {
	return h.dispatcher
}
