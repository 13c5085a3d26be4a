package services

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"cup-ranking-system/config"
	"cup-ranking-system/lbank"
	"cup-ranking-system/models"
	"cup-ranking-system/repository"

	"github.com/google/uuid"
)

func symbolForCup(cup models.Cup) string {
	return lbank.SymbolFromPair(cup.Pair)
}

// Exchange is the slice of the LBank client the ranking engine consumes.
type Exchange interface {
	USDTBalance(ctx context.Context, apiKey, secretKey string) (float64, error)
	VolumeForPair(ctx context.Context, apiKey, secretKey, symbol string, startTimestamp int64) (float64, error)
}

// Decrypter recovers plaintext API credentials from their stored form.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// CupResult is one cup's outcome in a cycle summary.
type CupResult struct {
	CupID   string `json:"cup_id"`
	Action  string `json:"action,omitempty"`  // "ended" when the cup was auto-ended this cycle
	Updated int    `json:"updated"`
	Error   string `json:"error,omitempty"`
}

// participantOutcome is the per-item result collected during a cup pass.
// Failures are values here, not panics, so the rank pass and the cycle
// summary can be built from the collected outcomes.
type participantOutcome struct {
	entry  repository.RosterEntry
	pnlPct float64
	err    error
}

// RankingService runs the periodic ranking recomputation: for every
// active cup it scores each participant from live exchange data, writes
// an immutable snapshot, overwrites the cached stats, and reassigns
// ranks. Per-participant failures are isolated; the next scheduled cycle
// is the retry mechanism.
type RankingService struct {
	repo     repository.RankingRepository
	exchange Exchange
	vault    Decrypter
	workers  int
	now      func() time.Time
}

func NewRankingService(repo repository.RankingRepository, exchange Exchange, vault Decrypter, cfg *config.Config) *RankingService {
	workers := cfg.RankingWorkers
	if workers <= 0 {
		workers = 1
	}
	return &RankingService{
		repo:     repo,
		exchange: exchange,
		vault:    vault,
		workers:  workers,
		now:      time.Now,
	}
}

// RunCycle performs one full recomputation pass over all active cups.
// It returns a per-cup summary. A failure to list active cups aborts the
// cycle; any later failure is scoped to one cup or one participant.
func (s *RankingService) RunCycle(ctx context.Context) ([]CupResult, error) {
	cups, err := s.repo.FindActiveCups()
	if err != nil {
		return nil, err
	}
	if len(cups) == 0 {
		return []CupResult{}, nil
	}

	results := make([]CupResult, 0, len(cups))
	for _, cup := range cups {
		results = append(results, s.processCup(ctx, cup))
	}
	return results, nil
}

func (s *RankingService) processCup(ctx context.Context, cup models.Cup) CupResult {
	now := s.now()

	// Auto-end expired cups; ranking freezes at its last computed state.
	if cup.EndAt != nil && now.After(*cup.EndAt) {
		if err := s.repo.UpdateCupStatus(cup.ID, models.CupStatusEnded); err != nil {
			log.Printf("[Ranking] Failed to end cup %s: %v", cup.ID, err)
			return CupResult{CupID: cup.ID, Error: err.Error()}
		}
		log.Printf("[Ranking] Cup %s ended (end_at passed)", cup.ID)
		return CupResult{CupID: cup.ID, Action: "ended"}
	}

	roster, err := s.repo.FindCupRoster(cup.ID, cup.Exchange)
	if err != nil {
		log.Printf("[Ranking] Failed to load roster for cup %s: %v", cup.ID, err)
		return CupResult{CupID: cup.ID, Error: err.Error()}
	}
	if len(roster) == 0 {
		return CupResult{CupID: cup.ID, Updated: 0}
	}

	var startAt int64
	if cup.StartAt != nil {
		startAt = cup.StartAt.UnixMilli()
	}

	outcomes := s.scoreParticipants(ctx, cup, roster, startAt)

	// Rank pass: only participants scored this cycle take part; the rest
	// keep their previous rank. Ties on pnl_pct go to the earlier
	// registration, then user ID, so rank order is reproducible.
	updated := make([]participantOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err == nil {
			updated = append(updated, o)
		}
	}
	sort.SliceStable(updated, func(i, j int) bool {
		if updated[i].pnlPct != updated[j].pnlPct {
			return updated[i].pnlPct > updated[j].pnlPct
		}
		if !updated[i].entry.RegisteredAt.Equal(updated[j].entry.RegisteredAt) {
			return updated[i].entry.RegisteredAt.Before(updated[j].entry.RegisteredAt)
		}
		return updated[i].entry.UserID < updated[j].entry.UserID
	})

	ranked := 0
	for i, o := range updated {
		if err := s.repo.UpdateParticipantRank(cup.ID, o.entry.UserID, i+1); err != nil {
			log.Printf("[Ranking] Failed to set rank for user %s in cup %s: %v", o.entry.UserID, cup.ID, err)
			continue
		}
		ranked++
	}

	if ranked < len(updated) {
		log.Printf("[Ranking] Cup %s: only %d of %d rank writes succeeded", cup.ID, ranked, len(updated))
	}
	log.Printf("[Ranking] Cup %s: %d/%d participants updated", cup.ID, len(updated), len(roster))
	return CupResult{CupID: cup.ID, Updated: len(updated)}
}

// scoreParticipants runs the fetch/compute/snapshot/update sequence for
// every roster entry through a bounded worker pool, then barriers before
// returning so the caller can run the rank pass over complete results.
func (s *RankingService) scoreParticipants(ctx context.Context, cup models.Cup, roster []repository.RosterEntry, startAt int64) []participantOutcome {
	outcomes := make([]participantOutcome, len(roster))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, entry := range roster {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, entry repository.RosterEntry) {
			defer wg.Done()
			defer func() { <-sem }()

			pnlPct, err := s.scoreOne(ctx, cup, entry, startAt)
			if err != nil {
				log.Printf("[Ranking] Skipping participant %s in cup %s: %v", entry.UserID, cup.ID, err)
			}
			outcomes[i] = participantOutcome{entry: entry, pnlPct: pnlPct, err: err}
		}(i, entry)
	}
	wg.Wait()

	return outcomes
}

func (s *RankingService) scoreOne(ctx context.Context, cup models.Cup, entry repository.RosterEntry, startAt int64) (float64, error) {
	apiKey, err := s.vault.Decrypt(entry.EncryptedApiKey)
	if err != nil {
		return 0, err
	}
	apiSecret, err := s.vault.Decrypt(entry.EncryptedApiSecret)
	if err != nil {
		return 0, err
	}

	currentBalance, err := s.exchange.USDTBalance(ctx, apiKey, apiSecret)
	if err != nil {
		return 0, err
	}
	volumeSinceStart, err := s.exchange.VolumeForPair(ctx, apiKey, apiSecret, symbolForCup(cup), startAt)
	if err != nil {
		return 0, err
	}

	// A participant with no recorded starting balance scores neutral:
	// start balance falls back to the current balance, so pnl is 0.
	startBalance := currentBalance
	if entry.StartBalanceUSDT != nil {
		startBalance = *entry.StartBalanceUSDT
	}
	pnl := currentBalance - startBalance
	pnlPct := 0.0
	if startBalance > 0 {
		pnlPct = (pnl / startBalance) * 100
	}

	minVolume := cup.MinVolumeUSDT
	if minVolume <= 0 {
		minVolume = 100
	}
	isEligible := volumeSinceStart >= minVolume

	if err := s.repo.InsertSnapshot(&models.CupSnapshot{
		ID:               uuid.NewString(),
		CupID:            cup.ID,
		UserID:           entry.UserID,
		BalanceUSDT:      currentBalance,
		VolumeSinceStart: volumeSinceStart,
		PNLPct:           pnlPct,
	}); err != nil {
		return 0, err
	}

	if err := s.repo.UpdateParticipantStats(entry.CupParticipant.ID, repository.ParticipantStats{
		PNL:             pnl,
		PNLPct:          pnlPct,
		TotalVolumeUSDT: volumeSinceStart,
		IsEligible:      isEligible,
	}); err != nil {
		return 0, err
	}

	return pnlPct, nil
}
