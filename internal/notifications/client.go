package notifications

import (
	"time"

	"ripple/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// WSHub is an interface for hubs that manage clients.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client is the middleman between one websocket connection and a hub.
type Client struct {
	Hub WSHub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// UID of the authenticated principal, or empty for anonymous readers.
	UID string
}

// NewClient creates a new Client instance.
func NewClient(hub WSHub, conn *websocket.Conn, uid string) *Client {
	return &Client{
		Hub:  hub,
		Conn: conn,
		UID:  uid,
		Send: make(chan []byte, 64),
	}
}

// TrySend queues a message without blocking; a full buffer drops it.
func (c *Client) TrySend(message []byte) {
	select {
	case c.Send <- message:
	default:
	}
}

// ReadPump consumes messages from the websocket connection until it closes.
// The feed stream is one-way, so inbound payloads are discarded; the pump
// exists to notice disconnects and keep pong deadlines fresh.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				observability.NewWSLogger(c.Hub.Name()).LogError(c.UID, err)
			}
			break
		}
	}
}

// WritePump pumps messages from the Send channel to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
