// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// R2Config holds the Cloudflare R2 (S3-compatible) storage settings used
// for cup cover images.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Config is the full process configuration, loaded once at startup and
// passed explicitly into every constructor. Components never read the
// environment themselves.
type Config struct {
	DatabaseURL    string
	Port           string
	AllowedOrigins string

	// CronSecret authenticates callers of the ranking trigger endpoint.
	CronSecret string
	// EncryptionKey is the operator secret the credential vault derives
	// its AES key from.
	EncryptionKey string

	LBankBaseURL string

	RankingInterval time.Duration
	RankingWorkers  int

	R2 R2Config
}

// Load reads configuration from the environment. Required values missing
// is an error; the caller decides whether that is fatal.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Port:           getEnv("PORT", "5300"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		CronSecret:     os.Getenv("CRON_SECRET"),
		EncryptionKey:  os.Getenv("ENCRYPTION_KEY"),
		LBankBaseURL:   getEnv("LBANK_BASE_URL", "https://api.lbkex.com"),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.CronSecret == "" {
		return nil, fmt.Errorf("CRON_SECRET environment variable not set")
	}
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY environment variable not set")
	}

	intervalSec, err := strconv.Atoi(getEnv("RANKING_INTERVAL_SECONDS", "60"))
	if err != nil || intervalSec <= 0 {
		return nil, fmt.Errorf("RANKING_INTERVAL_SECONDS must be a positive integer")
	}
	cfg.RankingInterval = time.Duration(intervalSec) * time.Second

	workers, err := strconv.Atoi(getEnv("RANKING_WORKERS", "4"))
	if err != nil || workers <= 0 {
		return nil, fmt.Errorf("RANKING_WORKERS must be a positive integer")
	}
	cfg.RankingWorkers = workers

	if cfg.R2.CDNBaseURL == "" && cfg.R2.AccountID != "" {
		cfg.R2.CDNBaseURL = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2.AccountID)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
