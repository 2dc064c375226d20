package models

import (
	"time"
)

// FCMToken binds a device push token to a user. The token is globally
// unique: re-registering a token under a new uid re-binds the device.
type FCMToken struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UID       string    `json:"uid" gorm:"not null;index"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null"`
	Platform  string    `json:"platform" gorm:"default:'android'"`
	Locale    string    `json:"locale" gorm:"default:'en'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NotificationPreferences gates which push categories a user receives.
// Absence of a row means all categories enabled.
type NotificationPreferences struct {
	UID             string    `json:"uid" gorm:"primaryKey"`
	GameReminders   bool      `json:"game_reminders" gorm:"default:true"`
	ProgressUpdates bool      `json:"progress_updates" gorm:"default:true"`
	Competition     bool      `json:"competition" gorm:"default:true"`
	Inactivity      bool      `json:"inactivity" gorm:"default:true"`
	NewContent      bool      `json:"new_content" gorm:"default:true"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NotificationLog keeps an audit trail of every outbound push attempt.
type NotificationLog struct {
	ID     uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UID    string    `json:"uid" gorm:"index"`
	Type   string    `json:"type"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	Data   []byte    `json:"data,omitempty" gorm:"type:jsonb"`
	SentAt time.Time `json:"sent_at" gorm:"index"`
	Status string    `json:"status"` // "sent" or "no_tokens"
}
