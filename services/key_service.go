package services

import (
	"errors"
	"log"
	"strings"

	"cup-ranking-system/lbank"
	"cup-ranking-system/models"
	"cup-ranking-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApiKeyService manages exchange API credentials: a key pair is probed
// live against the exchange before it is encrypted and stored, and only
// verified pairs are ever used for scoring.
type ApiKeyService struct {
	DB     *gorm.DB
	Vault  *utils.Vault
	Client *lbank.Client
}

func NewApiKeyService(db *gorm.DB, vault *utils.Vault, client *lbank.Client) *ApiKeyService {
	return &ApiKeyService{DB: db, Vault: vault, Client: client}
}

// SaveKey verifies then upserts a credential pair for the current user.
func (s *ApiKeyService) SaveKey(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)
	if userID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "not authenticated"})
	}

	type Req struct {
		ApiKey    string `json:"api_key"`
		ApiSecret string `json:"api_secret"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	apiKey := strings.TrimSpace(req.ApiKey)
	apiSecret := strings.TrimSpace(req.ApiSecret)
	if apiKey == "" || apiSecret == "" {
		return c.Status(400).JSON(fiber.Map{"error": "api_key and api_secret required"})
	}

	// Live probe before trusting the pair.
	if _, err := s.Client.UserInfo(c.Context(), apiKey, apiSecret); err != nil {
		log.Printf("[Keys] Verification failed for user %s: %v", userID, err)
		return c.Status(400).JSON(fiber.Map{"error": "invalid API credentials"})
	}

	encryptedKey, err := s.Vault.Encrypt(apiKey)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to store API key"})
	}
	encryptedSecret, err := s.Vault.Encrypt(apiSecret)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to store API key"})
	}

	record := models.ExchangeApiKey{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Exchange:           models.ExchangeLBank,
		EncryptedApiKey:    encryptedKey,
		EncryptedApiSecret: encryptedSecret,
		IsVerified:         true,
	}
	err = s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "exchange"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"encrypted_api_key",
			"encrypted_api_secret",
			"is_verified",
			"updated_at",
		}),
	}).Create(&record).Error
	if err != nil {
		log.Printf("[Keys] Upsert failed for user %s: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to save API key"})
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"exchange":    record.Exchange,
		"is_verified": record.IsVerified,
	}})
}

// TestKey probes a credential pair without storing it and echoes the
// account's USDT balance on success.
func (s *ApiKeyService) TestKey(c *fiber.Ctx) error {
	type Req struct {
		ApiKey    string `json:"api_key"`
		ApiSecret string `json:"api_secret"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	apiKey := strings.TrimSpace(req.ApiKey)
	apiSecret := strings.TrimSpace(req.ApiSecret)
	if apiKey == "" || apiSecret == "" {
		return c.Status(400).JSON(fiber.Map{"error": "api_key and api_secret required"})
	}

	info, err := s.Client.UserInfo(c.Context(), apiKey, apiSecret)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "LBank API error: " + err.Error()})
	}
	balance, err := s.Client.USDTBalance(c.Context(), apiKey, apiSecret)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "LBank API error: " + err.Error()})
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"uid":          info.UID,
		"usdt_balance": balance,
		"connected":    true,
	}})
}

// KeyStatus reports whether the current user has a verified key. Key
// material never leaves the vault through this endpoint.
func (s *ApiKeyService) KeyStatus(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)
	if userID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "not authenticated"})
	}

	var record models.ExchangeApiKey
	err := s.DB.Select("id, created_at").
		Where("user_id = ? AND exchange = ? AND is_verified = true", userID, models.ExchangeLBank).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"data": fiber.Map{"has_key": false}})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"has_key":    true,
		"created_at": record.CreatedAt,
	}})
}
