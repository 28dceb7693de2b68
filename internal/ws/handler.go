package ws

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Handler subscribes the connection to ?claim_id=..., or to every claim
// when the parameter is absent.
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		claimID := strings.TrimSpace(c.Query("claim_id"))
		if claimID == "" {
			claimID = AllClaims
		}

		client := &Client{
			hub:     hub,
			conn:    c,
			claimID: claimID,
			send:    make(chan []byte, 256),
		}

		if !hub.subscribe(client) {
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
