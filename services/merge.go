package services

import (
	"fmt"
	"sort"
	"time"

	"puzzle-game-system/models"
)

// MergeProgress reconciles a stored progress document with an incoming
// client snapshot. It is pure and idempotent: merging a document with itself
// yields itself, and re-applying an input already merged changes nothing, so
// retried syncs and multi-device races converge on the same document.
//
// Field rules: sets union, per-puzzle counters take the max, per-puzzle solve
// times take the min (best time wins, but only for puzzles in the merged
// solved set), scalars take the max and booleans OR. Nothing is ever removed.
//
// now is used only when stored is absent and the incoming timestamp is unset.
func MergeProgress(stored *models.ProgressDocument, incoming models.ProgressDocument, now time.Time) models.ProgressDocument {
	if stored == nil {
		out := incoming
		normalizeSets(&out)
		if out.UpdatedAt.IsZero() {
			out.UpdatedAt = now
		}
		return out
	}

	merged := models.ProgressDocument{
		SolvedPuzzles:   unionSets(stored.SolvedPuzzles, incoming.SolvedPuzzles),
		UnlockedStages:  unionSets(stored.UnlockedStages, incoming.UnlockedStages),
		UnlockedSeasons: unionSets(stored.UnlockedSeasons, incoming.UnlockedSeasons),
		Achievements:    unionSets(stored.Achievements, incoming.Achievements),
		UnlockedLore:    unionSets(stored.UnlockedLore, incoming.UnlockedLore),
		DiscoveredTools: unionSets(stored.DiscoveredTools, incoming.DiscoveredTools),

		HintsUsed: mergeMapsMax(stored.HintsUsed, incoming.HintsUsed),
		Attempts:  mergeMapsMax(stored.Attempts, incoming.Attempts),

		GlobalCooldownEnd:   maxInt64(stored.GlobalCooldownEnd, incoming.GlobalCooldownEnd),
		GlobalWrongAttempts: maxInt64(stored.GlobalWrongAttempts, incoming.GlobalWrongAttempts),

		IntroSeen: stored.IntroSeen || incoming.IntroSeen,
		TourSeen:  stored.TourSeen || incoming.TourSeen,

		UpdatedAt: maxTime(stored.UpdatedAt, incoming.UpdatedAt),
	}

	merged.SolveTimes = mergeSolveTimes(stored.SolveTimes, incoming.SolveTimes, merged.SolvedPuzzles)

	return merged
}

// ValidateIncoming rejects documents that cannot be repaired by merging:
// negative counters, non-positive solve times, and solve times recorded for
// puzzles absent from the union of both documents' solved sets.
func ValidateIncoming(stored *models.ProgressDocument, incoming models.ProgressDocument) error {
	for puzzle, n := range incoming.HintsUsed {
		if n < 0 {
			return &ValidationError{Field: "hintsUsed", Reason: fmt.Sprintf("negative count for %q", puzzle)}
		}
	}
	for puzzle, n := range incoming.Attempts {
		if n < 0 {
			return &ValidationError{Field: "attempts", Reason: fmt.Sprintf("negative count for %q", puzzle)}
		}
	}
	if incoming.GlobalWrongAttempts < 0 {
		return &ValidationError{Field: "globalWrongAttempts", Reason: "negative count"}
	}

	solved := make(map[string]bool, len(incoming.SolvedPuzzles))
	for _, id := range incoming.SolvedPuzzles {
		solved[id] = true
	}
	if stored != nil {
		for _, id := range stored.SolvedPuzzles {
			solved[id] = true
		}
	}
	for puzzle, ms := range incoming.SolveTimes {
		if ms <= 0 {
			return &ValidationError{Field: "solveTimes", Reason: fmt.Sprintf("non-positive time for %q", puzzle)}
		}
		if !solved[puzzle] {
			return &ValidationError{Field: "solveTimes", Reason: fmt.Sprintf("time recorded for unsolved puzzle %q", puzzle)}
		}
	}
	return nil
}

// unionSets merges two id sets into a sorted, de-duplicated slice. Sorting
// keeps the merge deterministic regardless of input order.
func unionSets(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		seen[id] = true
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func mergeMapsMax(a, b map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if cur, ok := out[k]; !ok || v > cur {
			out[k] = v
		}
	}
	return out
}

// mergeSolveTimes keeps the best (lowest) time per puzzle, restricted to
// puzzles in the merged solved set — a time must not survive for an unsolved
// puzzle.
func mergeSolveTimes(a, b map[string]int64, solvedPuzzles []string) map[string]int64 {
	solved := make(map[string]bool, len(solvedPuzzles))
	for _, id := range solvedPuzzles {
		solved[id] = true
	}
	out := make(map[string]int64, len(a)+len(b))
	for k, v := range a {
		if solved[k] {
			out[k] = v
		}
	}
	for k, v := range b {
		if !solved[k] {
			continue
		}
		if cur, ok := out[k]; !ok || v < cur {
			out[k] = v
		}
	}
	return out
}

// normalizeSets de-duplicates and orders the set fields of a document so a
// first sync round-trips identically to a merged one.
func normalizeSets(doc *models.ProgressDocument) {
	doc.SolvedPuzzles = unionSets(doc.SolvedPuzzles, nil)
	doc.UnlockedStages = unionSets(doc.UnlockedStages, nil)
	doc.UnlockedSeasons = unionSets(doc.UnlockedSeasons, nil)
	doc.Achievements = unionSets(doc.Achievements, nil)
	doc.UnlockedLore = unionSets(doc.UnlockedLore, nil)
	doc.DiscoveredTools = unionSets(doc.DiscoveredTools, nil)
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
