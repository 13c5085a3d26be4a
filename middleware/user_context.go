// middleware/user_context.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserContext extracts the user identity set by the gateway, which has
// already verified the wallet signature upstream. Routes behind this
// middleware require an authenticated caller.
func UserContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("[USER_CTX] Missing X-User-ID on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		isAdmin := false
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if strings.TrimSpace(r) == "admin" {
				isAdmin = true
				break
			}
		}

		c.Locals("user_id", userID)
		c.Locals("is_admin", isAdmin)
		return c.Next()
	}
}

// AdminOnly restricts a route group to gateway-asserted admins.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isAdmin, ok := c.Locals("is_admin").(bool); !ok || !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin role required",
			})
		}
		return c.Next()
	}
}
