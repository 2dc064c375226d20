// services/scheduler.go
package services

import (
	"log"
	"time"

	"puzzle-game-system/models"

	"github.com/go-co-op/gocron/v2"
)

// staleTokenAge is how long an FCM token may go untouched before the prune
// job drops it.
const staleTokenAge = 180 * 24 * time.Hour

// StartUnlockScheduler activates seasons whose unlock date has passed.
func (s *ContentService) StartUnlockScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: flip seasons whose unlock date arrived
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var seasons []models.Season
			now := time.Now()
			err := s.DB.Where("is_active = ? AND unlock_date IS NOT NULL AND unlock_date <= ?", false, now).
				Find(&seasons).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, season := range seasons {
				season.IsActive = true
				if err := s.DB.Save(&season).Error; err != nil {
					log.Printf("[Scheduler] Failed to unlock season %s: %v", season.ID, err)
				} else {
					log.Printf("✅ Auto-unlocked season: %s", season.ID)
				}
			}
		}),
	)
}

// StartTokenPruneScheduler drops FCM tokens that have not been refreshed in
// a long time. Clients re-register tokens on every app start, so anything
// this old belongs to an uninstalled app.
func (s *NotificationService) StartTokenPruneScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-staleTokenAge)
			res := s.DB.Where("updated_at < ?", cutoff).Delete(&models.FCMToken{})
			if res.Error != nil {
				log.Printf("[Scheduler] Token prune failed: %v", res.Error)
				return
			}
			if res.RowsAffected > 0 {
				log.Printf("🧹 Pruned %d stale FCM tokens", res.RowsAffected)
			}
		}),
	)
}
