package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"cup-ranking-system/models"
	"cup-ranking-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Fields an admin may change after creation. Status has its own endpoint
// with transition rules.
var cupPatchFields = map[string]bool{
	"name":            true,
	"description":     true,
	"pair":            true,
	"start_at":        true,
	"end_at":          true,
	"min_volume_usdt": true,
}

type CupService struct {
	DB      *gorm.DB
	Storage *utils.R2Storage
}

func NewCupService(db *gorm.DB, storage *utils.R2Storage) *CupService {
	return &CupService{DB: db, Storage: storage}
}

func (s *CupService) CreateCup(c *fiber.Ctx) error {
	type Req struct {
		Name          string  `json:"name"`
		Exchange      string  `json:"exchange"`
		Pair          string  `json:"pair"`
		StartAt       string  `json:"start_at"`
		EndAt         string  `json:"end_at"`
		MinVolumeUSDT float64 `json:"min_volume_usdt"`
		Description   string  `json:"description"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	var startAt, endAt *time.Time
	if req.StartAt != "" {
		t, err := time.Parse(time.RFC3339, req.StartAt)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid start_at (use RFC3339)"})
		}
		startAt = &t
	}
	if req.EndAt != "" {
		t, err := time.Parse(time.RFC3339, req.EndAt)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid end_at (use RFC3339)"})
		}
		endAt = &t
	}

	exchange := req.Exchange
	if exchange == "" {
		exchange = models.ExchangeLBank
	}
	pair := req.Pair
	if pair == "" {
		pair = "IZKY/USDT"
	}
	minVolume := req.MinVolumeUSDT
	if minVolume <= 0 {
		minVolume = 100
	}

	cup := &models.Cup{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Slug:          slug.Make(req.Name),
		Exchange:      exchange,
		Pair:          pair,
		Status:        models.CupStatusDraft,
		StartAt:       startAt,
		EndAt:         endAt,
		MinVolumeUSDT: minVolume,
		Description:   req.Description,
		CreatedBy:     userIDFromCtx(c),
	}
	if err := s.DB.Create(cup).Error; err != nil {
		log.Printf("ERROR creating cup: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}
	return c.Status(201).JSON(cup)
}

func (s *CupService) GetAllCups(c *fiber.Ctx) error {
	var cups []models.Cup
	query := s.DB.Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&cups).Error; err != nil {
		log.Printf("ERROR fetching cups: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch cups"})
	}
	return c.JSON(fiber.Map{"data": cups})
}

func (s *CupService) GetCupByID(c *fiber.Ctx) error {
	id := c.Params("id")
	var cup models.Cup
	if err := s.DB.First(&cup, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "cup not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	s.DB.Model(&models.CupParticipant{}).
		Where("cup_id = ?", id).
		Count(&cup.ParticipantCount)

	return c.JSON(fiber.Map{"data": cup})
}

func (s *CupService) UpdateCup(c *fiber.Ctx) error {
	id := c.Params("id")
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	updates := map[string]interface{}{}
	for k, v := range body {
		if cupPatchFields[k] {
			updates[k] = v
		}
	}
	if len(updates) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "no valid fields to update"})
	}
	if name, ok := updates["name"].(string); ok && name != "" {
		updates["slug"] = slug.Make(name)
	}

	result := s.DB.Model(&models.Cup{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "cup not found"})
	}

	var cup models.Cup
	s.DB.First(&cup, "id = ?", id)
	return c.JSON(fiber.Map{"data": cup})
}

func (s *CupService) DeleteCup(c *fiber.Ctx) error {
	id := c.Params("id")
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cup_id = ?", id).Delete(&models.CupSnapshot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("cup_id = ?", id).Delete(&models.CupParticipant{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Cup{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(404, "cup not found")
		}
		return nil
	})
}

// Admin-driven status transitions. The scheduled ranking job owns the
// active -> ended transition; everything else comes through here.
var allowedTransitions = map[string][]string{
	models.CupStatusDraft:     {models.CupStatusScheduled, models.CupStatusActive},
	models.CupStatusScheduled: {models.CupStatusActive, models.CupStatusDraft},
	models.CupStatusActive:    {models.CupStatusEnded},
	models.CupStatusEnded:     {models.CupStatusFinalized},
}

func (s *CupService) UpdateCupStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	type Req struct {
		Status string `json:"status"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var cup models.Cup
	if err := s.DB.First(&cup, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "cup not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	valid := false
	for _, next := range allowedTransitions[cup.Status] {
		if next == req.Status {
			valid = true
			break
		}
	}
	if !valid {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("cannot transition from %s to %s", cup.Status, req.Status),
		})
	}

	if err := s.DB.Model(&cup).Update("status", req.Status).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	return c.JSON(fiber.Map{"data": cup})
}

// GetCupRanking returns the public leaderboard: non-disqualified
// participants ordered by rank, unranked entries last.
func (s *CupService) GetCupRanking(c *fiber.Ctx) error {
	id := c.Params("id")
	var participants []models.CupParticipant
	err := s.DB.Preload("Profile").
		Where("cup_id = ? AND is_disqualified = false", id).
		Order("rank ASC NULLS LAST").
		Find(&participants).Error
	if err != nil {
		log.Printf("ERROR fetching ranking for cup %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch ranking"})
	}
	return c.JSON(fiber.Map{"data": participants})
}

func (s *CupService) UploadCoverImage(c *fiber.Ctx) error {
	id := c.Params("id")
	var cup models.Cup
	if err := s.DB.First(&cup, "id = ?", id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "cup not found"})
	}

	file, err := c.FormFile("file")
	if err != nil || file.Size == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "no file provided"})
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return c.Status(400).JSON(fiber.Map{"error": "file must be an image"})
	}
	if file.Size > 5*1024*1024 {
		return c.Status(400).JSON(fiber.Map{"error": "image must be under 5MB"})
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := "cups/covers/" + cup.ID + ext

	url, err := s.Storage.UploadCupCover(file, key)
	if err != nil {
		log.Printf("ERROR uploading cover for cup %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload image"})
	}

	if err := s.DB.Model(&cup).Update("cover_image_key", key).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	return c.JSON(fiber.Map{"url": url})
}

// DisqualifyParticipant permanently removes a participant from ranking
// consideration. The ranking engine never touches the disqualification
// fields, so the two write paths cannot race on the same column.
func (s *CupService) DisqualifyParticipant(c *fiber.Ctx) error {
	cupID := c.Params("id")
	type Req struct {
		ParticipantID string `json:"participant_id"`
		Reason        string `json:"reason"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.ParticipantID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "participant_id is required"})
	}

	var participant models.CupParticipant
	if err := s.DB.First(&participant, "id = ?", req.ParticipantID).Error; err != nil || participant.CupID != cupID {
		return c.Status(404).JSON(fiber.Map{"error": "participant not found"})
	}
	if participant.IsDisqualified {
		return c.Status(400).JSON(fiber.Map{"error": "already disqualified"})
	}

	reason := req.Reason
	if reason == "" {
		reason = models.DisqualifyAdminForced
	}
	if err := s.DB.Model(&participant).Updates(map[string]interface{}{
		"is_disqualified":   true,
		"disqualify_reason": reason,
	}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "disqualify failed"})
	}
	return c.JSON(fiber.Map{"success": true})
}

func userIDFromCtx(c *fiber.Ctx) string {
	if v, ok := c.Locals("user_id").(string); ok {
		return v
	}
	return ""
}
