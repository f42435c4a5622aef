package handlers

import (
	"log"

	"social-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// WSEvent is the message shape exchanged over the presence channel.
type WSEvent struct {
	Event     string   `json:"event"`
	UserID    string   `json:"userId,omitempty"`
	Followers []string `json:"followers,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// WebSocketHandler keeps the presence registry up to date for the
// authenticated user and relays post notifications. A client may announce a
// new post itself ("add_post"); the create-post endpoint also pushes
// "post_added" server-side, so either path reaches connected followers.
func WebSocketHandler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID := c.Locals("user_id").(string)
		connID := uuid.New().String()

		conn := Presence.Register(connID, userID, c)
		defer func() {
			Presence.Unregister(connID)
			c.Close()
		}()

		if err := conn.WriteJSON(WSEvent{Event: "connected", UserID: userID}); err != nil {
			utils.LogError(err, "welcome message")
		}

		for {
			msgType, msg, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("error: %v", err)
				}
				break
			}
			if msgType != websocket.TextMessage {
				continue
			}

			var event WSEvent
			if err := utils.SafeJSONParse(msg, &event); err != nil {
				utils.LogError(err, "JSON Parse")
				continue
			}

			switch event.Event {
			case "add_post":
				Presence.SendToUsers(event.Followers, WSEvent{Event: "post_added", UserID: userID})
			default:
				log.Printf("Unknown event: %s", event.Event)
			}
		}
	})
}

// WSUpgradeMiddleware upgrades the connection to WebSocket
func WSUpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
