// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartCompactionScheduler runs a periodic stale-slot sweep so queue reads
// stay cheap even when nodes churn offline between competitions.
func (s *NodeQueueService) StartCompactionScheduler(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			removed, err := s.Compact()
			if err != nil {
				log.Printf("[Scheduler] Queue compaction failed: %v", err)
				return
			}
			if removed > 0 {
				log.Printf("✅ Queue compaction removed %d stale slots", removed)
			}
		}),
	)
}
