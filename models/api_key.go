package models

import (
	"time"
)

// Supported exchanges.
const (
	ExchangeLBank = "lbank"
)

// ExchangeApiKey stores one user's API credential pair for one exchange.
// Key material is encrypted at rest by the vault; IsVerified is set only
// after a successful live probe against the exchange. Rows are replaced
// via upsert on (user_id, exchange) and are otherwise read-only.
type ExchangeApiKey struct {
	ID                 string    `json:"id" gorm:"primaryKey"`
	UserID             string    `json:"user_id" gorm:"not null;uniqueIndex:idx_user_exchange"`
	Exchange           string    `json:"exchange" gorm:"not null;uniqueIndex:idx_user_exchange"`
	EncryptedApiKey    string    `json:"-" gorm:"not null"`
	EncryptedApiSecret string    `json:"-" gorm:"not null"`
	IsVerified         bool      `json:"is_verified" gorm:"default:false"`
	CreatedAt          time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
