package controller

import (
	"strconv"

	"chat-service/middleware"
	"chat-service/service"

	"github.com/gofiber/fiber/v2"
)

type ConversationCreateInput struct {
	Counterpart      service.ParticipantRef `json:"counterpart"`
	VehicleContextId string                 `json:"vehicleContextId"`
}

func ConversationList(chat *service.Chat) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conversations, err := chat.ListMyConversations(middleware.CallerFromCtx(c))
		if err != nil {
			return respondError(c, err)
		}
		return respondData(c, conversations)
	}
}

func ConversationListAll(chat *service.Chat) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conversations, err := chat.ListAllConversations(middleware.CallerFromCtx(c))
		if err != nil {
			return respondError(c, err)
		}
		return respondData(c, conversations)
	}
}

func ConversationCreate(chat *service.Chat) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input := new(ConversationCreateInput)
		if err := c.BodyParser(input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "Review your input",
				"data":    nil,
			})
		}

		conversation, err := chat.CreateOrGetConversation(
			middleware.CallerFromCtx(c),
			input.Counterpart,
			input.VehicleContextId,
		)
		if err != nil {
			return respondError(c, err)
		}
		return respondData(c, conversation)
	}
}

func ConversationDetail(chat *service.Chat) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil {
			return respondError(c, service.ErrNotFound)
		}

		details, err := chat.GetConversationDetail(middleware.CallerFromCtx(c), uint(id))
		if err != nil {
			return respondError(c, err)
		}
		return respondData(c, details)
	}
}
