package middleware

import (
	"chat-service/database"

	"github.com/gofiber/fiber/v2"
)

func RBAC() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := CallerFromCtx(c)

		if !identity.Identified() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "Unauthorized",
				"data":    nil,
			})
		}

		// Load policy from Database
		if err := database.Casbin().LoadPolicy(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "error",
				"message": "Internal server error",
				"data":    nil,
			})
		}

		// Casbin enforces policy
		accepted, err := database.Casbin().Enforce(identity.Role, c.Path(), c.Method())

		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "error",
				"message": "Internal server error",
				"data":    nil,
			})
		}

		if !accepted {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"message": "Forbidden",
				"data":    nil,
			})
		}

		return c.Next()
	}
}
