package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cup-ranking-system/config"
	"cup-ranking-system/handlers"
	"cup-ranking-system/lbank"
	"cup-ranking-system/models"
	"cup-ranking-system/repository"
	"cup-ranking-system/services"
	"cup-ranking-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // covers cover-image uploads
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-User-ID, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.ExchangeApiKey{},
		&models.Cup{},
		&models.CupParticipant{},
		&models.CupSnapshot{},
	); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	storage, err := utils.NewR2Storage(cfg.R2)
	if err != nil {
		log.Fatal("failed to initialize R2 client: ", err)
	}

	vault := utils.NewVault(cfg.EncryptionKey)
	exchangeClient := lbank.New(cfg.LBankBaseURL)
	rankingRepo := repository.NewGormRankingRepository(db)

	rankingService := services.NewRankingService(rankingRepo, exchangeClient, vault, cfg)
	cupService := services.NewCupService(db, storage)
	keyService := services.NewApiKeyService(db, vault, exchangeClient)
	registrationService := services.NewRegistrationService(db, vault, exchangeClient)

	services.StartRankingScheduler(rankingService, cfg.RankingInterval)

	handlers.SetupCupRoutes(app, cupService, registrationService)
	handlers.SetupKeyRoutes(app, keyService)
	handlers.SetupRankingRoutes(app, rankingService, cfg.CronSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server running on http://localhost:%s", cfg.Port)
	log.Printf("Ranking scheduler running (every %s)", cfg.RankingInterval)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
