package handlers

import (
	"cup-ranking-system/middleware"
	"cup-ranking-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupKeyRoutes(app *fiber.App, keyService *services.ApiKeyService) {
	secured := app.Group("/lbank", middleware.UserContext())
	secured.Post("/save-key", keyService.SaveKey)
	secured.Post("/test", keyService.TestKey)
	secured.Get("/status", keyService.KeyStatus)
}
