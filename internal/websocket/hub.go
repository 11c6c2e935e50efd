package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// Hub manages the set of active clients and broadcasts state updates.
// All connection writes happen inside Run's loop; gorilla connections do
// not tolerate concurrent writers.
type Hub struct {
	clients    map[*websocket.Conn]struct{}
	mu         sync.RWMutex
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan PlaybackState

	// onRegister, when set, is invoked from the Run loop for every newly
	// registered connection, before any subsequent broadcast reaches it.
	onRegister func(*websocket.Conn)
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan PlaybackState),
	}
}

// Run starts the hub's event loop. It must be run in a separate goroutine.
func (h *Hub) Run(ctx context.Context) {
	log.Info("hub started")
	defer log.Info("hub stopped")

	for {
		select {
		case <-ctx.Done():
			h.closeAllConnections()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			log.WithField("remoteAddr", client.RemoteAddr()).Debug("client registered")
			if h.onRegister != nil {
				h.onRegister(client)
			}
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
			}
			h.mu.Unlock()
			log.WithField("remoteAddr", client.RemoteAddr()).Debug("client unregistered")
		case state := <-h.broadcast:
			h.broadcastState(state)
		}
	}
}

// Broadcast sends a state update to all connected clients.
func (h *Hub) Broadcast(state PlaybackState) {
	h.broadcast <- state
}

// broadcastState handles the actual message sending.
func (h *Hub) broadcastState(state PlaybackState) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	for client := range h.clients {
		if err := client.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.WithError(err).WithField("remoteAddr", client.RemoteAddr()).Warn("failed to set write deadline")
			continue
		}
		if err := client.WriteJSON(state); err != nil {
			// The read loop notices the broken connection and unregisters it.
			log.WithError(err).WithField("remoteAddr", client.RemoteAddr()).Warn("failed to broadcast message")
		}
	}
}

// closeAllConnections closes all active client connections during shutdown.
func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if err := client.Close(); err != nil {
			log.WithError(err).WithField("remoteAddr", client.RemoteAddr()).Warn("error closing client connection during shutdown")
		}
	}
}
