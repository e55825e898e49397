package controller

import (
	"chat-service/middleware"
	"chat-service/model"
	"chat-service/service"

	"github.com/gofiber/fiber/v2"
)

type MessageSendInput struct {
	ConversationId uint           `json:"conversationId"`
	Content        string         `json:"content"`
	Image          string         `json:"image"`
	Images         []string       `json:"images"`
	File           model.ChatFile `json:"file"`
	ReplyTo        uint           `json:"replyTo"`
}

type MessageReadInput struct {
	ConversationId uint `json:"conversationId"`
}

func MessageSend(chat *service.Chat) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input := new(MessageSendInput)
		if err := c.BodyParser(input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "Review your input",
				"data":    nil,
			})
		}

		message, err := chat.SendMessage(
			middleware.CallerFromCtx(c),
			input.ConversationId,
			input.Content,
			service.Attachment{
				Image:  input.Image,
				Images: input.Images,
				File:   input.File,
			},
			input.ReplyTo,
		)
		if err != nil {
			return respondError(c, err)
		}
		return respondData(c, message)
	}
}

func MessageRead(chat *service.Chat) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input := new(MessageReadInput)
		if err := c.BodyParser(input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "Review your input",
				"data":    nil,
			})
		}

		if err := chat.MarkRead(middleware.CallerFromCtx(c), input.ConversationId); err != nil {
			return respondError(c, err)
		}
		return respondData(c, nil)
	}
}
