package models

import (
	"time"
)

// Profile is the local record of a wallet-authenticated user. Identity
// is established upstream (gateway verifies the wallet signature and
// forwards the user ID as a trusted header); this service only stores
// the display data the ranking views need.
type Profile struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	WalletAddress string    `json:"wallet_address" gorm:"uniqueIndex;not null"`
	DisplayName   *string   `json:"display_name,omitempty"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
