package models

import (
	"time"
)

// CupSnapshot is an immutable observation of a participant's balance,
// volume and PNL% at one point in time. Rows are append-only, never
// updated or deleted. They form the auditable ranking history.
type CupSnapshot struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	CupID            string    `json:"cup_id" gorm:"not null;index"`
	UserID           string    `json:"user_id" gorm:"not null;index"`
	SnapshotAt       time.Time `json:"snapshot_at" gorm:"autoCreateTime;index"`
	BalanceUSDT      float64   `json:"balance_usdt"`
	VolumeSinceStart float64   `json:"volume_since_start"`
	PNLPct           float64   `json:"pnl_pct"`
}
