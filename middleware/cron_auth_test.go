package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronAuthRejectsBeforeHandlerRuns(t *testing.T) {
	app := fiber.New()
	handlerRan := false
	app.Post("/api/cron/ranking", CronAuth("cron-secret"), func(c *fiber.Ctx) error {
		handlerRan = true
		return c.JSON(fiber.Map{"success": true})
	})

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong token", "Bearer wrong"},
		{"empty bearer", "Bearer "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/cron/ranking", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.False(t, handlerRan)
		})
	}
}

func TestCronAuthAcceptsValidToken(t *testing.T) {
	app := fiber.New()
	app.Post("/api/cron/ranking", CronAuth("cron-secret"), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})

	req := httptest.NewRequest("POST", "/api/cron/ranking", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUserContextRequiresIdentityHeader(t *testing.T) {
	app := fiber.New()
	app.Get("/secured", UserContext(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":  c.Locals("user_id"),
			"is_admin": c.Locals("is_admin"),
		})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/secured", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/secured", nil)
	req.Header.Set("X-User-ID", "user-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminOnlyChecksGatewayRoles(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", UserContext(), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Roles", "trader")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Roles", "trader, admin")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
