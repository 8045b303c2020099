// Package notifications fans live feed snapshots out to websocket clients.
package notifications

import (
	"errors"
	"sync"

	"ripple/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// Max total connections across all clients.
const maxTotalConns = 10000

// FeedHub tracks every websocket client watching the live feed. All clients
// receive the same stream: each committed change produces one full snapshot
// broadcast to everyone.
type FeedHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	// last holds the most recent broadcast so a client connecting between
	// snapshots still starts with the current state.
	last []byte

	wsLog *observability.WSLogger
}

// NewFeedHub creates an empty hub.
func NewFeedHub() *FeedHub {
	return &FeedHub{
		clients: make(map[*Client]struct{}),
		wsLog:   observability.NewWSLogger("feed"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *FeedHub) Name() string { return "feed hub" }

// Register adds a connection. uid may be empty: the feed is readable without
// an identity.
func (h *FeedHub) Register(conn *websocket.Conn, uid string) (*Client, error) {
	h.mu.Lock()
	if len(h.clients) >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	client := NewClient(h, conn, uid)
	h.clients[client] = struct{}{}
	replay := h.last
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	h.wsLog.LogConnect(uid)

	if replay != nil {
		client.TrySend(replay)
	}
	return client, nil
}

// UnregisterClient removes a connection.
func (h *FeedHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		observability.WebSocketConnectionsTotal.Dec()
		h.wsLog.LogDisconnect(client.UID, "connection closed")
	}
}

// Broadcast sends message to every connected client. Slow consumers have the
// message dropped rather than stalling the feed; the next snapshot supersedes
// it anyway.
func (h *FeedHub) Broadcast(message []byte) {
	h.mu.Lock()
	h.last = message
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.TrySend(message)
	}
}

// Count returns the number of connected clients.
func (h *FeedHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
