package services

import (
	"errors"
	"log"

	"cup-ranking-system/lbank"
	"cup-ranking-system/models"
	"cup-ranking-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistrationService enters users into cups. A verified exchange key is
// a hard requirement; capturing the starting balance is best-effort and
// never blocks the registration itself.
type RegistrationService struct {
	DB     *gorm.DB
	Vault  *utils.Vault
	Client *lbank.Client
}

func NewRegistrationService(db *gorm.DB, vault *utils.Vault, client *lbank.Client) *RegistrationService {
	return &RegistrationService{DB: db, Vault: vault, Client: client}
}

func (s *RegistrationService) RegisterParticipant(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)
	if userID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "not authenticated"})
	}
	cupID := c.Params("id")

	var cup models.Cup
	if err := s.DB.First(&cup, "id = ?", cupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "cup not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if cup.Status != models.CupStatusScheduled && cup.Status != models.CupStatusActive {
		return c.Status(400).JSON(fiber.Map{"error": "cup is not accepting registrations"})
	}

	var existing models.CupParticipant
	if err := s.DB.Where("cup_id = ? AND user_id = ?", cupID, userID).First(&existing).Error; err == nil {
		return c.Status(400).JSON(fiber.Map{"error": "already registered"})
	}

	var apiKey models.ExchangeApiKey
	err := s.DB.Where("user_id = ? AND exchange = ? AND is_verified = true", userID, cup.Exchange).
		First(&apiKey).Error
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "verified LBank API key required"})
	}

	// Best effort: a failed balance fetch leaves start_balance NULL and
	// the participant scores neutral until a later admin correction.
	var startBalance *float64
	key, keyErr := s.Vault.Decrypt(apiKey.EncryptedApiKey)
	secret, secretErr := s.Vault.Decrypt(apiKey.EncryptedApiSecret)
	if keyErr == nil && secretErr == nil {
		if balance, err := s.Client.USDTBalance(c.Context(), key, secret); err == nil {
			startBalance = &balance
		} else {
			log.Printf("[Register] Could not fetch balance for user %s: %v", userID, err)
		}
	} else {
		log.Printf("[Register] Could not decrypt credentials for user %s", userID)
	}

	participant := models.CupParticipant{
		ID:               uuid.NewString(),
		CupID:            cupID,
		UserID:           userID,
		StartBalanceUSDT: startBalance,
	}
	if err := s.DB.Create(&participant).Error; err != nil {
		log.Printf("[Register] Insert failed for user %s in cup %s: %v", userID, cupID, err)
		return c.Status(500).JSON(fiber.Map{"error": "registration failed"})
	}
	return c.Status(201).JSON(fiber.Map{"data": participant})
}
