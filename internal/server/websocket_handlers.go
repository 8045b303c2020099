package server

import (
	"ripple/internal/auth"
	"ripple/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func (s *Server) setupWebSocketRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/feed", s.WebSocketFeedHandler())
}

// WebSocketFeedHandler streams full feed snapshots to the client: one JSON
// array per committed change, replacing whatever the client held before. A
// token is optional; the feed is readable without an identity.
func (s *Server) WebSocketFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid := ""
		if token := conn.Query("token"); token != "" {
			p, err := auth.ParseToken(s.config.JWTSecret, token)
			if err != nil {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
				_ = conn.Close()
				return
			}
			uid = p.UID
		}

		client, err := s.hub.Register(conn, uid)
		if err != nil {
			observability.NewWSLogger(s.hub.Name()).LogError(uid, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"connection limit reached"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
