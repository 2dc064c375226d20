package models

import (
	"time"
)

// LeaderboardEntry records a user's first (and only) ranked solve of a
// puzzle. At most one entry exists per (puzzle_id, uid) and it is immutable
// once created. Rank is derived from the (solve_time_ms, submitted_at) total
// order at read/insert time and is never persisted.
type LeaderboardEntry struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	PuzzleID    string    `json:"puzzle_id" gorm:"not null;index;uniqueIndex:idx_leaderboard_puzzle_uid"`
	UID         string    `json:"uid" gorm:"not null;uniqueIndex:idx_leaderboard_puzzle_uid"`
	DisplayName string    `json:"display_name"`
	SolveTimeMs int64     `json:"solve_time_ms" gorm:"not null"`
	Attempts    int64     `json:"attempts"`
	HintsUsed   int64     `json:"hints_used"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"not null;index"`

	// Calculated on read, not stored in DB
	Rank int `json:"rank,omitempty" gorm:"-"`
}
