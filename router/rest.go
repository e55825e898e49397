package router

import (
	"chat-service/controller"
	"chat-service/middleware"
	"chat-service/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func Rest(app *fiber.App, chat *service.Chat) {
	api := app.Group("/v1", logger.New(), middleware.Identity())

	// Conversations
	api.Get("/conversations", controller.ConversationList(chat))
	api.Get("/conversations/all", middleware.RBAC(), controller.ConversationListAll(chat))
	api.Post("/conversations", controller.ConversationCreate(chat))
	api.Get("/conversations/:id", controller.ConversationDetail(chat))

	// Messages (non-realtime fallback)
	api.Post("/messages", controller.MessageSend(chat))
	api.Post("/messages/read", controller.MessageRead(chat))
}
