package models

import (
	"time"
)

// Cup statuses. The ranking engine only drives the active -> ended
// transition; all other transitions are admin actions.
const (
	CupStatusDraft     = "draft"
	CupStatusScheduled = "scheduled"
	CupStatusActive    = "active"
	CupStatusEnded     = "ended"
	CupStatusFinalized = "finalized"
)

// Cup represents one trading competition, scoped to a single exchange
// and trading pair.
type Cup struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	Name          string     `json:"name" gorm:"not null"`
	Slug          string     `json:"slug" gorm:"index"`
	Exchange      string     `json:"exchange" gorm:"not null;default:'lbank'"`
	Pair          string     `json:"pair" gorm:"not null"`
	Status        string     `json:"status" gorm:"default:'draft';index"`
	StartAt       *time.Time `json:"start_at,omitempty"`
	EndAt         *time.Time `json:"end_at,omitempty"`
	MinVolumeUSDT float64    `json:"min_volume_usdt" gorm:"default:100"`
	Description   string     `json:"description"`
	CoverImageKey string     `json:"cover_image_key,omitempty"`
	CreatedBy     string     `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Participants []CupParticipant `json:"participants,omitempty" gorm:"foreignKey:CupID"`

	// Calculated fields (not stored in DB)
	ParticipantCount int64 `json:"participant_count,omitempty" gorm:"-"`
}
