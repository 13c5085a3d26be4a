// Package repository mediates all database access for the ranking
// engine. The engine depends on the RankingRepository interface so the
// batch algorithm can be exercised against in-memory fakes.
package repository

import (
	"cup-ranking-system/models"

	"gorm.io/gorm"
)

// ParticipantStats is the full replacement set of cached fields written
// after each participant is scored. It is an overwrite, not a merge.
type ParticipantStats struct {
	PNL             float64
	PNLPct          float64
	TotalVolumeUSDT float64
	IsEligible      bool
}

// RosterEntry is one scorable participant: a non-disqualified entry
// joined with their verified, still-encrypted credential for the cup's
// exchange. Participants without a verified credential never appear.
type RosterEntry struct {
	models.CupParticipant
	EncryptedApiKey    string
	EncryptedApiSecret string
}

// RankingRepository is the narrow persistence surface the ranking engine
// consumes. Every operation is a single-row read/write; the engine's
// idempotent-overwrite design needs no multi-row transactions.
type RankingRepository interface {
	FindActiveCups() ([]models.Cup, error)
	FindCupRoster(cupID, exchange string) ([]RosterEntry, error)
	UpdateCupStatus(cupID, status string) error
	InsertSnapshot(snapshot *models.CupSnapshot) error
	UpdateParticipantStats(participantID string, stats ParticipantStats) error
	UpdateParticipantRank(cupID, userID string, rank int) error
}

type GormRankingRepository struct {
	DB *gorm.DB
}

func NewGormRankingRepository(db *gorm.DB) *GormRankingRepository {
	return &GormRankingRepository{DB: db}
}

func (r *GormRankingRepository) FindActiveCups() ([]models.Cup, error) {
	var cups []models.Cup
	err := r.DB.Where("status = ?", models.CupStatusActive).Find(&cups).Error
	return cups, err
}

func (r *GormRankingRepository) FindCupRoster(cupID, exchange string) ([]RosterEntry, error) {
	var roster []RosterEntry
	err := r.DB.Model(&models.CupParticipant{}).
		Select("cup_participants.*, exchange_api_keys.encrypted_api_key, exchange_api_keys.encrypted_api_secret").
		Joins("INNER JOIN exchange_api_keys ON exchange_api_keys.user_id = cup_participants.user_id"+
			" AND exchange_api_keys.exchange = ? AND exchange_api_keys.is_verified = true", exchange).
		Where("cup_participants.cup_id = ? AND cup_participants.is_disqualified = false", cupID).
		Order("cup_participants.registered_at ASC").
		Scan(&roster).Error
	return roster, err
}

func (r *GormRankingRepository) UpdateCupStatus(cupID, status string) error {
	return r.DB.Model(&models.Cup{}).
		Where("id = ?", cupID).
		Update("status", status).Error
}

func (r *GormRankingRepository) InsertSnapshot(snapshot *models.CupSnapshot) error {
	return r.DB.Create(snapshot).Error
}

func (r *GormRankingRepository) UpdateParticipantStats(participantID string, stats ParticipantStats) error {
	return r.DB.Model(&models.CupParticipant{}).
		Where("id = ?", participantID).
		Updates(map[string]interface{}{
			"pnl":               stats.PNL,
			"pnl_pct":           stats.PNLPct,
			"total_volume_usdt": stats.TotalVolumeUSDT,
			"is_eligible":       stats.IsEligible,
		}).Error
}

func (r *GormRankingRepository) UpdateParticipantRank(cupID, userID string, rank int) error {
	return r.DB.Model(&models.CupParticipant{}).
		Where("cup_id = ? AND user_id = ?", cupID, userID).
		Update("rank", rank).Error
}
