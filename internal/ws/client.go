package ws

import (
	"github.com/gofiber/websocket/v2"
)

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	claimID string
	send    chan []byte
}

// ReadPump only drains control frames; subscribers never send data
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unsubscribe(c)
		_ = c.conn.Close()
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
