// middleware/cron_auth.go
package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CronAuth guards the ranking trigger endpoint with a shared secret.
// Unauthorized calls are rejected before any work begins and produce no
// side effects.
func CronAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if authHeader == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			log.Printf("[CRON_AUTH] Rejected trigger call for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
		return c.Next()
	}
}
