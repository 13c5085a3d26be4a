package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"cup-ranking-system/config"
	"cup-ranking-system/models"
	"cup-ranking-system/repository"
	"cup-ranking-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRepo is the minimal repository used to drive the trigger endpoint.
type stubRepo struct {
	cups    []models.Cup
	err     error
	queried bool
}

func (s *stubRepo) FindActiveCups() ([]models.Cup, error) {
	s.queried = true
	return s.cups, s.err
}

func (s *stubRepo) FindCupRoster(cupID, exchange string) ([]repository.RosterEntry, error) {
	return nil, nil
}
func (s *stubRepo) UpdateCupStatus(cupID, status string) error                        { return nil }
func (s *stubRepo) InsertSnapshot(snapshot *models.CupSnapshot) error                 { return nil }
func (s *stubRepo) UpdateParticipantStats(id string, st repository.ParticipantStats) error { return nil }
func (s *stubRepo) UpdateParticipantRank(cupID, userID string, rank int) error        { return nil }

type stubExchange struct{}

func (stubExchange) USDTBalance(ctx context.Context, apiKey, secretKey string) (float64, error) {
	return 0, nil
}

func (stubExchange) VolumeForPair(ctx context.Context, apiKey, secretKey, symbol string, startTimestamp int64) (float64, error) {
	return 0, nil
}

type stubDecrypter struct{}

func (stubDecrypter) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

func newTriggerApp(repo *stubRepo) *fiber.App {
	app := fiber.New()
	svc := services.NewRankingService(repo, stubExchange{}, stubDecrypter{}, &config.Config{RankingWorkers: 1})
	SetupRankingRoutes(app, svc, "cron-secret")
	return app
}

func TestRankingTriggerUnauthorizedHasNoSideEffects(t *testing.T) {
	repo := &stubRepo{}
	app := newTriggerApp(repo)

	req := httptest.NewRequest("POST", "/api/cron/ranking", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.False(t, repo.queried)
}

func TestRankingTriggerNoActiveCups(t *testing.T) {
	app := newTriggerApp(&stubRepo{})

	req := httptest.NewRequest("POST", "/api/cron/ranking", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "no active cups", body["message"])
}

func TestRankingTriggerReportsCycleFailure(t *testing.T) {
	app := newTriggerApp(&stubRepo{err: errors.New("database unreachable")})

	req := httptest.NewRequest("POST", "/api/cron/ranking", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestRankingTriggerReturnsPerCupResults(t *testing.T) {
	repo := &stubRepo{cups: []models.Cup{{
		ID:       "cup-1",
		Exchange: models.ExchangeLBank,
		Pair:     "IZKY/USDT",
		Status:   models.CupStatusActive,
	}}}
	app := newTriggerApp(repo)

	req := httptest.NewRequest("POST", "/api/cron/ranking", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
		Results []struct {
			CupID   string `json:"cup_id"`
			Updated int    `json:"updated"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "cup-1", body.Results[0].CupID)
	assert.Zero(t, body.Results[0].Updated)
}
