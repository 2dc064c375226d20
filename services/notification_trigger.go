package services

import (
	"context"
	"log"
	"time"
)

// NotificationTrigger turns top-3 admissions into outbound pushes: a
// congratulation for the new entrant and an alert for whoever got pushed
// below the boundary. Dispatch happens after the admission has committed and
// is fire-and-forget — delivery failures never surface to the submitter.
type NotificationTrigger struct {
	Notifications *NotificationService
}

func NewNotificationTrigger(notifications *NotificationService) *NotificationTrigger {
	return &NotificationTrigger{Notifications: notifications}
}

// OnAdmitted fires at most once per successful admission and only when the
// new entry landed in the top 3. Never called on an AlreadySolved outcome.
func (t *NotificationTrigger) OnAdmitted(result *AdmissionResult) {
	if t == nil || t.Notifications == nil || result == nil || !result.TopThree {
		return
	}
	event := result.Displacement
	if event == nil {
		return
	}
	go t.dispatch(*event)
}

func (t *NotificationTrigger) dispatch(event DisplacementEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := t.Notifications.SendToUser(ctx, event.NewUID,
		"COMMENDATION EARNED",
		"Top 3 clearance achieved. Your record stands, recruit.",
		map[string]string{"route": "/leaderboard"},
		CategoryCompetition,
	); err != nil {
		log.Printf("⚠️ Top-3 congratulation failed for %s: %v", event.NewUID, err)
	}

	if event.DisplacedUID == "" || event.DisplacedUID == event.NewUID {
		return
	}
	if _, err := t.Notifications.SendToUser(ctx, event.DisplacedUID,
		"ALERT: RANK COMPROMISED",
		"Your record has been surpassed. Reclaim your honor, recruit.",
		map[string]string{"route": "/leaderboard"},
		CategoryCompetition,
	); err != nil {
		log.Printf("⚠️ Displacement alert failed for %s: %v", event.DisplacedUID, err)
	}
}
