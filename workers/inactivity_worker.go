// workers/inactivity_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"puzzle-game-system/models"
	"puzzle-game-system/services"

	"gorm.io/gorm"
)

// InactivityWorker reminds players who stopped syncing progress. Each scan
// only picks up users whose last sync fell into the window
// [now-idleAfter-interval, now-idleAfter), so a user gets exactly one
// reminder per idle period instead of one per scan.
type InactivityWorker struct {
	db            *gorm.DB
	notifications *services.NotificationService
	interval      time.Duration
	idleAfter     time.Duration
}

func NewInactivityWorker(db *gorm.DB, notifications *services.NotificationService) *InactivityWorker {
	return &InactivityWorker{
		db:            db,
		notifications: notifications,
		interval:      24 * time.Hour,
		idleAfter:     14 * 24 * time.Hour,
	}
}

func (w *InactivityWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Inactivity Worker (progress idle → reminder push)…")
	go w.run(ctx)
}

func (w *InactivityWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.scan(ctx); err != nil {
				log.Printf("❌ Inactivity scan failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Inactivity Worker stopped")
			return
		}
	}
}

func (w *InactivityWorker) scan(ctx context.Context) error {
	windowEnd := time.Now().Add(-w.idleAfter)
	windowStart := windowEnd.Add(-w.interval)

	var records []models.ProgressRecord
	if err := w.db.WithContext(ctx).
		Select("uid").
		Where("updated_at >= ? AND updated_at < ?", windowStart, windowEnd).
		Find(&records).Error; err != nil {
		return err
	}

	for _, rec := range records {
		_, err := w.notifications.SendToUser(ctx, rec.UID,
			"OPERATIVE MISSING IN ACTION",
			"Your dossier has gone cold. The puzzles remain, recruit.",
			map[string]string{"route": "/stages"},
			services.CategoryInactivity,
		)
		if err != nil {
			log.Printf("⚠️ Inactivity reminder to %s failed: %v", rec.UID, err)
		}
	}
	if len(records) > 0 {
		log.Printf("📣 Sent inactivity reminders to %d idle users", len(records))
	}
	return nil
}
