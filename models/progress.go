package models

import (
	"time"

	"gorm.io/gorm"
)

// ProgressDocument is the full progress snapshot a client device accumulates
// locally and sends on sync. Solve times are in milliseconds; lower is better.
// The document only ever grows: merging never drops a set member or map key.
type ProgressDocument struct {
	SolvedPuzzles   []string `json:"solvedPuzzles"`
	UnlockedStages  []string `json:"unlockedStages"`
	UnlockedSeasons []string `json:"unlockedSeasons"`
	Achievements    []string `json:"achievements"`
	UnlockedLore    []string `json:"unlockedLore"`
	DiscoveredTools []string `json:"discoveredTools"`

	HintsUsed  map[string]int64 `json:"hintsUsed"`
	Attempts   map[string]int64 `json:"attempts"`
	SolveTimes map[string]int64 `json:"solveTimes"`

	// Global cooldown is a unix-millis deadline shared across devices.
	GlobalCooldownEnd   int64 `json:"globalCooldownEnd"`
	GlobalWrongAttempts int64 `json:"globalWrongAttempts"`

	IntroSeen bool `json:"introSeen"`
	TourSeen  bool `json:"tourSeen"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// ProgressRecord is the durable row backing a user's ProgressDocument.
// Mutated only through the merge path; UpdatedAt mirrors the document's
// timestamp and is monotonically non-decreasing.
type ProgressRecord struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	UID       string    `json:"uid" gorm:"uniqueIndex;not null"`
	Data      []byte    `json:"-" gorm:"type:jsonb;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
