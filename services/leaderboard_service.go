package services

import (
	"context"
	"errors"
	"log"
	"time"

	"puzzle-game-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// topThreshold is the boundary rank below which a new entry displaces
	// someone and both parties get notified.
	topThreshold = 3

	// leaderboardLimit caps the public listing.
	leaderboardLimit = 50
)

// DisplacementEvent describes a new top-3 entry and, when the top 3 was
// already full, the user it pushed out. Ephemeral: produced inside the
// admission transaction, consumed by the notification trigger, never stored.
type DisplacementEvent struct {
	PuzzleID     string
	DisplacedUID string // empty when the top 3 was not full
	NewUID       string
	NewRank      int
}

// AdmissionResult is the outcome of a successful first-solve submission.
type AdmissionResult struct {
	PuzzleID     string                  `json:"puzzle_id"`
	UID          string                  `json:"uid"`
	Rank         int                     `json:"rank"`
	IsFirstSolve bool                    `json:"is_first_solve"`
	TopThree     bool                    `json:"top_three"`
	Entry        models.LeaderboardEntry `json:"entry"`

	Displacement *DisplacementEvent `json:"-"`
}

type LeaderboardService struct {
	DB *gorm.DB

	now func() time.Time
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

// entryLess is the leaderboard total order: solve time ascending, then
// submission time ascending as the tie-break.
func entryLess(aTimeMs int64, aSubmitted time.Time, bTimeMs int64, bSubmitted time.Time) bool {
	if aTimeMs != bTimeMs {
		return aTimeMs < bTimeMs
	}
	return aSubmitted.Before(bSubmitted)
}

// rankAmong computes the 1-based rank a new (solveTimeMs, submittedAt) pair
// takes among the existing entries of a puzzle. Existing entries never move
// relative to each other, so the new rank is one plus the count of entries
// strictly ahead of the pair.
func rankAmong(existing []models.LeaderboardEntry, solveTimeMs int64, submittedAt time.Time) int {
	rank := 1
	for _, e := range existing {
		if entryLess(e.SolveTimeMs, e.SubmittedAt, solveTimeMs, submittedAt) {
			rank++
		}
	}
	return rank
}

// holderAtRank returns the uid at the given 1-based rank among entries
// already sorted by the total order, or "" when that rank is unoccupied.
func holderAtRank(sorted []models.LeaderboardEntry, rank int) string {
	if rank < 1 || rank > len(sorted) {
		return ""
	}
	return sorted[rank-1].UID
}

// SubmitSolve admits a user's first solve of a puzzle onto its leaderboard.
//
// Admissions for a puzzle are serialized by a transaction-scoped advisory
// lock keyed on the puzzle id, so the rank computation and the insert are
// atomic together; admissions for different puzzles proceed in parallel. A
// duplicate submission fails with ErrAlreadySolved and the existing entry is
// left untouched. The composite unique index on (puzzle_id, uid) backstops
// the uniqueness guarantee.
func (s *LeaderboardService) SubmitSolve(ctx context.Context, puzzleID, uid, displayName string, solveTimeMs, attempts, hintsUsed int64) (*AdmissionResult, error) {
	if solveTimeMs <= 0 {
		return nil, &ValidationError{Field: "solveTime", Reason: "must be positive"}
	}
	if attempts < 0 {
		return nil, &ValidationError{Field: "attempts", Reason: "must be non-negative"}
	}
	if hintsUsed < 0 {
		return nil, &ValidationError{Field: "hintsUsed", Reason: "must be non-negative"}
	}

	var result *AdmissionResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", puzzleID).Error; err != nil {
			return err
		}

		var existingCount int64
		if err := tx.Model(&models.LeaderboardEntry{}).
			Where("puzzle_id = ? AND uid = ?", puzzleID, uid).
			Count(&existingCount).Error; err != nil {
			return err
		}
		if existingCount > 0 {
			return ErrAlreadySolved
		}

		var existing []models.LeaderboardEntry
		if err := tx.Where("puzzle_id = ?", puzzleID).
			Order("solve_time_ms ASC, submitted_at ASC").
			Find(&existing).Error; err != nil {
			return err
		}

		entry := models.LeaderboardEntry{
			ID:          uuid.NewString(),
			PuzzleID:    puzzleID,
			UID:         uid,
			DisplayName: displayName,
			SolveTimeMs: solveTimeMs,
			Attempts:    attempts,
			HintsUsed:   hintsUsed,
			SubmittedAt: s.now(),
		}
		rank := rankAmong(existing, entry.SolveTimeMs, entry.SubmittedAt)

		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySolved
			}
			return err
		}

		entry.Rank = rank
		result = &AdmissionResult{
			PuzzleID:     puzzleID,
			UID:          uid,
			Rank:         rank,
			IsFirstSolve: true,
			TopThree:     rank <= topThreshold,
			Entry:        entry,
		}
		if result.TopThree {
			result.Displacement = &DisplacementEvent{
				PuzzleID:     puzzleID,
				DisplacedUID: holderAtRank(existing, topThreshold),
				NewUID:       uid,
				NewRank:      rank,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🏁 First solve admitted: puzzle=%s uid=%s rank=%d time=%dms",
		puzzleID, uid, result.Rank, solveTimeMs)
	return result, nil
}

// GetLeaderboard returns the top entries for a puzzle in the total order,
// with rank assigned by position. Read-only projection, no auth required.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, puzzleID string) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := s.DB.WithContext(ctx).
		Where("puzzle_id = ?", puzzleID).
		Order("solve_time_ms ASC, submitted_at ASC").
		Limit(leaderboardLimit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
