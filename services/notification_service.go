package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"puzzle-game-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notification categories gated by per-user preferences. Broadcast and
// general are never gated.
const (
	CategoryGameReminder = "game_reminder"
	CategoryProgress     = "progress"
	CategoryCompetition  = "competition"
	CategoryInactivity   = "inactivity"
	CategoryNewContent   = "new_content"
	CategoryBroadcast    = "broadcast"
	CategoryGeneral      = "general"
)

// PushMessage is one rendered notification for a single device.
type PushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// ErrUnregisteredToken is returned by a PushClient when the provider reports
// the device token as dead; the token is then pruned.
var ErrUnregisteredToken = errors.New("unregistered push token")

// PushClient delivers a message to one device token. The actual provider
// protocol lives behind this interface (see RelayPushClient).
type PushClient interface {
	Send(ctx context.Context, token string, msg PushMessage) error
}

type NotificationService struct {
	DB   *gorm.DB
	Push PushClient

	now func() time.Time
}

func NewNotificationService(db *gorm.DB, push PushClient) *NotificationService {
	return &NotificationService{DB: db, Push: push, now: func() time.Time { return time.Now().UTC() }}
}

// categoryAllowed checks whether the user's preferences admit a category.
// A nil preference row means everything is allowed.
func categoryAllowed(prefs *models.NotificationPreferences, category string) bool {
	if prefs == nil {
		return true
	}
	switch category {
	case CategoryGameReminder:
		return prefs.GameReminders
	case CategoryProgress:
		return prefs.ProgressUpdates
	case CategoryCompetition:
		return prefs.Competition
	case CategoryInactivity:
		return prefs.Inactivity
	case CategoryNewContent:
		return prefs.NewContent
	default:
		// broadcast, general and unknown categories are always sent
		return true
	}
}

// SendToUser pushes a notification to every device of one user, pruning
// tokens the provider reports dead, and logs the attempt. Returns the number
// of devices reached. Preference-gated sends return (0, nil).
func (s *NotificationService) SendToUser(ctx context.Context, uid, title, body string, data map[string]string, category string) (int, error) {
	var prefs models.NotificationPreferences
	err := s.DB.WithContext(ctx).Where("uid = ?", uid).First(&prefs).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no row: defaults apply, everything allowed
	case err != nil:
		return 0, err
	default:
		if !categoryAllowed(&prefs, category) {
			return 0, nil
		}
	}

	var tokens []models.FCMToken
	if err := s.DB.WithContext(ctx).Where("uid = ?", uid).Find(&tokens).Error; err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	msg := PushMessage{Title: title, Body: body, Data: data}
	sent := 0
	var deadTokenIDs []uint
	for _, t := range tokens {
		err := s.Push.Send(ctx, t.Token, msg)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrUnregisteredToken):
			deadTokenIDs = append(deadTokenIDs, t.ID)
		default:
			log.Printf("⚠️ Push delivery to %s failed: %v", uid, err)
		}
	}

	if len(deadTokenIDs) > 0 {
		if err := s.DB.WithContext(ctx).Delete(&models.FCMToken{}, deadTokenIDs).Error; err != nil {
			log.Printf("⚠️ Failed to prune %d dead tokens for %s: %v", len(deadTokenIDs), uid, err)
		}
	}

	status := "sent"
	if sent == 0 {
		status = "no_tokens"
	}
	var payload []byte
	if len(data) > 0 {
		payload, _ = json.Marshal(data)
	}
	if err := s.DB.WithContext(ctx).Create(&models.NotificationLog{
		UID:    uid,
		Type:   category,
		Title:  title,
		Body:   body,
		Data:   payload,
		SentAt: s.now(),
		Status: status,
	}).Error; err != nil {
		log.Printf("⚠️ Failed to log notification for %s: %v", uid, err)
	}

	return sent, nil
}

// SendToAll broadcasts to every user with at least one registered token.
func (s *NotificationService) SendToAll(ctx context.Context, title, body string, data map[string]string, category string) (int, error) {
	var uids []string
	if err := s.DB.WithContext(ctx).Model(&models.FCMToken{}).
		Distinct("uid").Pluck("uid", &uids).Error; err != nil {
		return 0, err
	}

	total := 0
	for _, uid := range uids {
		sent, err := s.SendToUser(ctx, uid, title, body, data, category)
		if err != nil {
			log.Printf("⚠️ Broadcast to %s failed: %v", uid, err)
			continue
		}
		total += sent
	}
	return total, nil
}

// RegisterToken upserts a device token. Tokens are unique per device, so a
// token seen under a new uid re-binds to that uid.
func (s *NotificationService) RegisterToken(ctx context.Context, uid, token, platform, locale string) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"uid", "platform", "locale", "updated_at"}),
	}).Create(&models.FCMToken{
		UID:      uid,
		Token:    token,
		Platform: platform,
		Locale:   locale,
	}).Error
}

// RemoveToken detaches a device token on logout.
func (s *NotificationService) RemoveToken(ctx context.Context, uid, token string) error {
	return s.DB.WithContext(ctx).
		Where("uid = ? AND token = ?", uid, token).
		Delete(&models.FCMToken{}).Error
}

// GetPreferences returns the stored preferences, or all-enabled defaults.
func (s *NotificationService) GetPreferences(ctx context.Context, uid string) (*models.NotificationPreferences, error) {
	var prefs models.NotificationPreferences
	err := s.DB.WithContext(ctx).Where("uid = ?", uid).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.NotificationPreferences{
			UID:             uid,
			GameReminders:   true,
			ProgressUpdates: true,
			Competition:     true,
			Inactivity:      true,
			NewContent:      true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// SavePreferences upserts the full preference row.
func (s *NotificationService) SavePreferences(ctx context.Context, prefs *models.NotificationPreferences) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		UpdateAll: true,
	}).Create(prefs).Error
}

// RecentLog returns the latest delivery-log rows, newest first.
func (s *NotificationService) RecentLog(ctx context.Context, limit int) ([]models.NotificationLog, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var rows []models.NotificationLog
	err := s.DB.WithContext(ctx).Order("sent_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
