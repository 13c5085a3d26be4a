package handlers

import (
	"cup-ranking-system/middleware"
	"cup-ranking-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCupRoutes(app *fiber.App, cupService *services.CupService, registrationService *services.RegistrationService) {
	// Public routes
	app.Get("/cups", cupService.GetAllCups)
	app.Get("/cups/:id", cupService.GetCupByID)
	app.Get("/cups/:id/ranking", cupService.GetCupRanking)

	// Authenticated routes
	secured := app.Group("/", middleware.UserContext())
	secured.Post("/cups/:id/register", registrationService.RegisterParticipant)

	// Admin-only routes
	admin := secured.Group("/admin", middleware.AdminOnly())
	admin.Post("/cups", cupService.CreateCup)
	admin.Patch("/cups/:id", cupService.UpdateCup)
	admin.Delete("/cups/:id", cupService.DeleteCup)
	admin.Patch("/cups/:id/status", cupService.UpdateCupStatus)
	admin.Post("/cups/:id/cover-image", cupService.UploadCoverImage)
	admin.Post("/cups/:id/disqualify", cupService.DisqualifyParticipant)
}
