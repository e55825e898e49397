package controller

import (
	"errors"

	"chat-service/service"

	"github.com/gofiber/fiber/v2"
)

func respondData(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    data,
	})
}

func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, service.ErrUnauthorized):
		status = fiber.StatusUnauthorized
		message = "Unauthorized"
	case errors.Is(err, service.ErrForbidden):
		status = fiber.StatusForbidden
		message = "Forbidden"
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
		message = "Not found"
	case errors.Is(err, service.ErrValidation):
		status = fiber.StatusBadRequest
		message = err.Error()
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}
