package handlers

import (
	"log"

	"cup-ranking-system/middleware"
	"cup-ranking-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRankingRoutes exposes the on-demand ranking trigger. The caller
// authenticates with the shared cron secret; the periodic scheduler
// drives the same cycle internally.
func SetupRankingRoutes(app *fiber.App, rankingService *services.RankingService, cronSecret string) {
	app.Post("/api/cron/ranking", middleware.CronAuth(cronSecret), func(c *fiber.Ctx) error {
		results, err := rankingService.RunCycle(c.Context())
		if err != nil {
			log.Printf("[Ranking] Trigger cycle failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "batch processing failed"})
		}
		if len(results) == 0 {
			return c.JSON(fiber.Map{"message": "no active cups"})
		}
		return c.JSON(fiber.Map{"success": true, "results": results})
	})
}
