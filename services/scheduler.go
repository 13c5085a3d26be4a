// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartRankingScheduler runs the ranking cycle on a fixed cadence. The
// trigger endpoint invokes the same RunCycle on demand; both paths are
// idempotent, so an overlap only wastes work.
func StartRankingScheduler(svc *RankingService, interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			results, err := svc.RunCycle(context.Background())
			if err != nil {
				log.Printf("[Scheduler] Ranking cycle failed: %v", err)
				return
			}
			log.Printf("[Scheduler] Ranking cycle complete: %d cup(s) processed", len(results))
		}),
	)
}
