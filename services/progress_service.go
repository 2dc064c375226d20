package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"puzzle-game-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// syncRetries bounds optimistic retries of the first-sync insert race.
const syncRetries = 3

type ProgressService struct {
	DB            *gorm.DB
	Notifications *NotificationService

	// now is swappable for deterministic tests
	now func() time.Time
}

func NewProgressService(db *gorm.DB, notifications *NotificationService) *ProgressService {
	return &ProgressService{DB: db, Notifications: notifications, now: func() time.Time { return time.Now().UTC() }}
}

// GetProgress returns the stored document, or nil if the user never synced.
func (s *ProgressService) GetProgress(ctx context.Context, uid string) (*models.ProgressDocument, error) {
	var rec models.ProgressRecord
	err := s.DB.WithContext(ctx).Where("uid = ?", uid).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc models.ProgressDocument
	if err := json.Unmarshal(rec.Data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SyncProgress reconciles an incoming client snapshot with the stored
// document and persists the result atomically. The stored row is read under
// FOR UPDATE so two concurrent syncs for the same user serialize — each merge
// incorporates the other's writes instead of overwriting them. A first-sync
// insert that loses the creation race retries against the winner's row.
//
// Returns the merged document. Newly unlocked stages trigger a progress push
// after commit, fire-and-forget.
func (s *ProgressService) SyncProgress(ctx context.Context, uid string, incoming models.ProgressDocument) (*models.ProgressDocument, error) {
	var merged models.ProgressDocument
	var stored *models.ProgressDocument

	for attempt := 0; attempt < syncRetries; attempt++ {
		stored = nil
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var rec models.ProgressRecord
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("uid = ?", uid).First(&rec).Error

			if errors.Is(err, gorm.ErrRecordNotFound) {
				if verr := ValidateIncoming(nil, incoming); verr != nil {
					return verr
				}
				merged = MergeProgress(nil, incoming, s.now())
				data, merr := json.Marshal(merged)
				if merr != nil {
					return merr
				}
				return tx.Create(&models.ProgressRecord{
					ID:        uuid.NewString(),
					UID:       uid,
					Data:      data,
					UpdatedAt: merged.UpdatedAt,
				}).Error
			}
			if err != nil {
				return err
			}

			var existing models.ProgressDocument
			if err := json.Unmarshal(rec.Data, &existing); err != nil {
				return err
			}
			if verr := ValidateIncoming(&existing, incoming); verr != nil {
				return verr
			}
			stored = &existing

			merged = MergeProgress(&existing, incoming, s.now())
			data, merr := json.Marshal(merged)
			if merr != nil {
				return merr
			}
			rec.Data = data
			rec.UpdatedAt = merged.UpdatedAt
			return tx.Save(&rec).Error
		})

		if err == nil {
			s.notifyStageCompletion(uid, stored, &merged)
			return &merged, nil
		}
		// Lost the first-sync creation race: another device created the row
		// between our lookup and insert. Re-read and merge against it.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Printf("⚠️ Progress sync insert race for %s (attempt %d), retrying", uid, attempt+1)
			continue
		}
		return nil, err
	}
	return nil, ErrConcurrencyConflict
}

// notifyStageCompletion pings the user when a sync unlocks stages they had
// not unlocked before. Only fires on merges against an existing document, so
// a first sync (device restore) stays silent.
func (s *ProgressService) notifyStageCompletion(uid string, before, after *models.ProgressDocument) {
	if s.Notifications == nil || before == nil || after == nil {
		return
	}
	known := make(map[string]bool, len(before.UnlockedStages))
	for _, id := range before.UnlockedStages {
		known[id] = true
	}
	var newlyUnlocked []string
	for _, id := range after.UnlockedStages {
		if !known[id] {
			newlyUnlocked = append(newlyUnlocked, id)
		}
	}
	if len(newlyUnlocked) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for range newlyUnlocked {
			if _, err := s.Notifications.SendToUser(ctx, uid,
				"DOSSIER DECLASSIFIED",
				"Stage complete. New operations await, recruit.",
				map[string]string{"route": "/stages"},
				CategoryProgress,
			); err != nil {
				log.Printf("⚠️ Stage completion notification failed for %s: %v", uid, err)
			}
		}
	}()
}
