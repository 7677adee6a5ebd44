package router

import (
	"context"

	"recruitment_chat_service/internal/chat/app"
	"recruitment_chat_service/pkg"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes wires the chat endpoints onto the fiber app.
func RegisterRoutes(r *fiber.App, chatWebsocket *app.ChatWebsocketHandler) {
	r.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// Upgrade only on known channels; everything else stays a plain 404.
	r.Use("/ws/:channel/:room", func(c *fiber.Ctx) error {
		if !pkg.Contains([]string{app.ChannelAdmin, app.ChannelApplicant}, c.Params("channel")) {
			return fiber.ErrNotFound
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})

	r.Get("/ws/:channel/:room", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))
}
