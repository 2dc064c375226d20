package models

import (
	"encoding/json"
	"time"
)

// TranslationSet maps a locale code ("en", "pt-BR", ...) to that locale's
// translated payload. The payload shape is entity-specific and opaque to the
// storage layer; the content service decodes the resolved locale only.
type TranslationSet map[string]json.RawMessage

// Season groups stages. Inactive seasons are hidden from the public content
// API; the unlock scheduler activates a season once UnlockDate passes.
type Season struct {
	ID               string         `json:"id" gorm:"primaryKey"`
	SortOrder        int            `json:"sort_order" gorm:"column:sort_order;default:0"`
	StageIDs         []string       `json:"stage_ids" gorm:"serializer:json;type:jsonb"`
	RequiredSeasonID *string        `json:"required_season_id,omitempty"`
	UnlockDate       *time.Time     `json:"unlock_date,omitempty"`
	Translations     TranslationSet `json:"translations" gorm:"serializer:json;type:jsonb"`
	IsActive         bool           `json:"is_active" gorm:"default:true"`
	Timestamps
}

// Stage groups puzzles within a season.
type Stage struct {
	ID              string         `json:"id" gorm:"primaryKey"`
	SeasonID        string         `json:"season_id" gorm:"not null;index"`
	SortOrder       int            `json:"sort_order" gorm:"column:sort_order;default:0"`
	RequiredPuzzles int            `json:"required_puzzles" gorm:"default:0"`
	PuzzleIDs       []string       `json:"puzzle_ids" gorm:"serializer:json;type:jsonb"`
	Translations    TranslationSet `json:"translations" gorm:"serializer:json;type:jsonb"`
	IsActive        bool           `json:"is_active" gorm:"default:true"`
	Timestamps
}

// Puzzle content (prompt, hints, answer hash) lives inside the translated
// payload; the backend never interprets it.
type Puzzle struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	Type         string         `json:"type"`
	StageID      string         `json:"stage_id" gorm:"not null;index"`
	SortOrder    int            `json:"sort_order" gorm:"column:sort_order;default:0"`
	Translations TranslationSet `json:"translations" gorm:"serializer:json;type:jsonb"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	Timestamps
}

// Reveal is the lore payload shown after a puzzle is solved.
type Reveal struct {
	PuzzleID     string         `json:"puzzle_id" gorm:"primaryKey"`
	LoreUnlock   string         `json:"lore_unlock"`
	Translations TranslationSet `json:"translations" gorm:"serializer:json;type:jsonb"`
	Timestamps
}

// GlossaryEntry is a localized reference article.
type GlossaryEntry struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	SortOrder    int            `json:"sort_order" gorm:"column:sort_order;default:0"`
	Translations TranslationSet `json:"translations" gorm:"serializer:json;type:jsonb"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	Timestamps
}

// AppConfig is a single-row ("main") runtime configuration record.
type AppConfig struct {
	Key             string    `json:"key" gorm:"primaryKey"`
	PuzzleSource    string    `json:"puzzle_source" gorm:"default:'remote'"`
	MaintenanceMode bool      `json:"maintenance_mode" gorm:"default:false"`
	MinAppVersion   string    `json:"min_app_version" gorm:"default:'1.0.0'"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AdminAuditLog records every admin mutation with before/after snapshots.
type AdminAuditLog struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Action     string    `json:"action"` // create, update, delete, sync
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	AdminUID   string    `json:"admin_uid"`
	AdminEmail string    `json:"admin_email"`
	BeforeData []byte    `json:"before_data,omitempty" gorm:"type:jsonb"`
	AfterData  []byte    `json:"after_data,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// TTSFile registers a narration audio clip stored in R2.
type TTSFile struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	NarrationID  string    `json:"narration_id" gorm:"not null;uniqueIndex:idx_tts_narration_locale"`
	Locale       string    `json:"locale" gorm:"not null;uniqueIndex:idx_tts_narration_locale"`
	Type         string    `json:"type" gorm:"default:'unknown'"`
	DurationSecs *float64  `json:"duration_secs,omitempty"`
	AudioURL     string    `json:"audio_url"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}
