package middleware

import (
	"strings"

	"chat-service/model"
	"chat-service/utils"

	"github.com/gofiber/fiber/v2"
)

// Identity resolves the caller from the trusted upstream layer and stores it
// in locals. A bearer token wins when present; otherwise the x-user-* headers
// are taken verbatim. Requests without either proceed unidentified — the
// handlers decide whether identity is required.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := model.CallerIdentity{}

		if bearer := c.Get("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
			if parsed, err := utils.CheckAndExtractIdentity(strings.TrimPrefix(bearer, "Bearer "), "JWT_ACCESS_KEY"); err == nil {
				identity = parsed
			}
		}

		if !identity.Identified() {
			identity = model.CallerIdentity{
				UserID:      c.Get("x-user-id"),
				DisplayName: c.Get("x-user-name"),
				AvatarURL:   c.Get("x-user-avatar"),
				Role:        c.Get("x-user-role"),
			}
		}

		c.Locals("identity", identity)
		return c.Next()
	}
}

// CallerFromCtx returns the identity stored by Identity().
func CallerFromCtx(c *fiber.Ctx) model.CallerIdentity {
	if identity, ok := c.Locals("identity").(model.CallerIdentity); ok {
		return identity
	}
	return model.CallerIdentity{}
}
