package models

import (
	"time"
)

// Disqualification reasons.
const (
	DisqualifyDepositDetected    = "deposit_detected"
	DisqualifyWithdrawalDetected = "withdrawal_detected"
	DisqualifyAdminForced        = "admin_forced"
)

// CupParticipant is one user's entry in one cup. The stats/rank fields
// are a cached projection of the latest snapshot, overwritten in full by
// the ranking engine each cycle. StartBalanceUSDT is captured once at
// registration and never changes afterward; it stays NULL when the
// balance could not be fetched at registration time.
type CupParticipant struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	CupID            string    `json:"cup_id" gorm:"not null;uniqueIndex:idx_cup_user"`
	UserID           string    `json:"user_id" gorm:"not null;uniqueIndex:idx_cup_user"`
	RegisteredAt     time.Time `json:"registered_at" gorm:"autoCreateTime"`
	StartBalanceUSDT *float64  `json:"start_balance_usdt"`
	PNL              float64   `json:"pnl" gorm:"default:0"`
	PNLPct           float64   `json:"pnl_pct" gorm:"default:0"`
	TotalVolumeUSDT  float64   `json:"total_volume_usdt" gorm:"default:0"`
	IsEligible       bool      `json:"is_eligible" gorm:"default:false"`
	IsDisqualified   bool      `json:"is_disqualified" gorm:"default:false;index"`
	DisqualifyReason *string   `json:"disqualify_reason,omitempty"`
	Rank             *int      `json:"rank,omitempty"`

	// Relationships
	Profile Profile `json:"profile,omitempty" gorm:"foreignKey:UserID;references:ID"`
}
