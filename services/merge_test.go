package services

import (
	"testing"
	"time"

	"puzzle-game-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mergeNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestMergeFirstSyncIdentity(t *testing.T) {
	incoming := models.ProgressDocument{
		SolvedPuzzles: []string{"p2", "p1"},
		HintsUsed:     map[string]int64{"p1": 2},
		SolveTimes:    map[string]int64{"p1": 9000, "p2": 4000},
		UpdatedAt:     mergeNow.Add(-time.Hour),
	}

	merged := MergeProgress(nil, incoming, mergeNow)

	assert.ElementsMatch(t, []string{"p1", "p2"}, merged.SolvedPuzzles)
	assert.Equal(t, incoming.HintsUsed, merged.HintsUsed)
	assert.Equal(t, incoming.SolveTimes, merged.SolveTimes)
	assert.Equal(t, incoming.UpdatedAt, merged.UpdatedAt)
}

func TestMergeFirstSyncDefaultsTimestamp(t *testing.T) {
	merged := MergeProgress(nil, models.ProgressDocument{SolvedPuzzles: []string{"p1"}}, mergeNow)
	assert.Equal(t, mergeNow, merged.UpdatedAt)
}

func TestMergeSolvedPuzzlesUnion(t *testing.T) {
	a := models.ProgressDocument{SolvedPuzzles: []string{"p1", "p3"}}
	b := models.ProgressDocument{SolvedPuzzles: []string{"p2", "p3"}}

	merged := MergeProgress(&a, b, mergeNow)

	assert.Equal(t, []string{"p1", "p2", "p3"}, merged.SolvedPuzzles)
}

func TestMergeCountersTakeMax(t *testing.T) {
	a := models.ProgressDocument{
		SolvedPuzzles: []string{"p1"},
		HintsUsed:     map[string]int64{"p1": 2},
		Attempts:      map[string]int64{"p1": 5},
	}
	b := models.ProgressDocument{
		SolvedPuzzles: []string{"p2"},
		HintsUsed:     map[string]int64{"p1": 1, "p2": 0},
		Attempts:      map[string]int64{"p1": 7},
	}

	merged := MergeProgress(&a, b, mergeNow)

	assert.Equal(t, map[string]int64{"p1": 2, "p2": 0}, merged.HintsUsed)
	assert.Equal(t, map[string]int64{"p1": 7}, merged.Attempts)
	assert.Equal(t, []string{"p1", "p2"}, merged.SolvedPuzzles)
}

func TestMergeSolveTimesTakeMin(t *testing.T) {
	a := models.ProgressDocument{
		SolvedPuzzles: []string{"p1", "p2"},
		SolveTimes:    map[string]int64{"p1": 10000, "p2": 3000},
	}
	b := models.ProgressDocument{
		SolvedPuzzles: []string{"p1"},
		SolveTimes:    map[string]int64{"p1": 8000},
	}

	merged := MergeProgress(&a, b, mergeNow)

	assert.Equal(t, map[string]int64{"p1": 8000, "p2": 3000}, merged.SolveTimes)
}

func TestMergeIdempotentUnderRepeat(t *testing.T) {
	a := models.ProgressDocument{
		SolvedPuzzles:       []string{"p1"},
		Achievements:        []string{"ach1"},
		HintsUsed:           map[string]int64{"p1": 3},
		Attempts:            map[string]int64{"p1": 4},
		SolveTimes:          map[string]int64{"p1": 5000},
		GlobalWrongAttempts: 2,
		IntroSeen:           true,
		UpdatedAt:           mergeNow.Add(-2 * time.Hour),
	}
	b := models.ProgressDocument{
		SolvedPuzzles: []string{"p1", "p2"},
		HintsUsed:     map[string]int64{"p1": 1, "p2": 2},
		Attempts:      map[string]int64{"p2": 1},
		SolveTimes:    map[string]int64{"p1": 4500, "p2": 7000},
		TourSeen:      true,
		UpdatedAt:     mergeNow.Add(-time.Hour),
	}

	ab := MergeProgress(&a, b, mergeNow)
	abAgain := MergeProgress(&ab, a, mergeNow)

	assert.Equal(t, ab, abAgain)

	// merging a document with itself yields itself
	self := MergeProgress(&ab, ab, mergeNow)
	assert.Equal(t, ab, self)
}

func TestMergeCommutative(t *testing.T) {
	a := models.ProgressDocument{
		SolvedPuzzles: []string{"p1"},
		SolveTimes:    map[string]int64{"p1": 5000},
		HintsUsed:     map[string]int64{"p1": 3},
		UpdatedAt:     mergeNow.Add(-time.Hour),
	}
	b := models.ProgressDocument{
		SolvedPuzzles: []string{"p2"},
		SolveTimes:    map[string]int64{"p2": 2000},
		HintsUsed:     map[string]int64{"p1": 1},
		UpdatedAt:     mergeNow,
	}

	assert.Equal(t, MergeProgress(&a, b, mergeNow), MergeProgress(&b, a, mergeNow))
}

func TestMergeNeverRemovesKeys(t *testing.T) {
	a := models.ProgressDocument{
		SolvedPuzzles:   []string{"p1"},
		UnlockedStages:  []string{"s1"},
		DiscoveredTools: []string{"cipher-wheel"},
		Attempts:        map[string]int64{"p1": 1, "p9": 3},
	}
	b := models.ProgressDocument{SolvedPuzzles: []string{"p1"}}

	merged := MergeProgress(&a, b, mergeNow)

	assert.Contains(t, merged.UnlockedStages, "s1")
	assert.Contains(t, merged.DiscoveredTools, "cipher-wheel")
	assert.Contains(t, merged.Attempts, "p9")
}

func TestMergeScalarsAndBooleans(t *testing.T) {
	a := models.ProgressDocument{GlobalCooldownEnd: 100, GlobalWrongAttempts: 7, IntroSeen: true}
	b := models.ProgressDocument{GlobalCooldownEnd: 250, GlobalWrongAttempts: 3, TourSeen: true}

	merged := MergeProgress(&a, b, mergeNow)

	assert.Equal(t, int64(250), merged.GlobalCooldownEnd)
	assert.Equal(t, int64(7), merged.GlobalWrongAttempts)
	assert.True(t, merged.IntroSeen)
	assert.True(t, merged.TourSeen)
}

func TestMergeUpdatedAtTakesMax(t *testing.T) {
	earlier := mergeNow.Add(-time.Hour)
	a := models.ProgressDocument{UpdatedAt: mergeNow}
	b := models.ProgressDocument{UpdatedAt: earlier}

	assert.Equal(t, mergeNow, MergeProgress(&a, b, mergeNow).UpdatedAt)
	assert.Equal(t, mergeNow, MergeProgress(&b, a, mergeNow).UpdatedAt)
}

func TestValidateRejectsNegativeCounters(t *testing.T) {
	err := ValidateIncoming(nil, models.ProgressDocument{
		HintsUsed: map[string]int64{"p1": -1},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "hintsUsed", verr.Field)

	err = ValidateIncoming(nil, models.ProgressDocument{
		Attempts: map[string]int64{"p1": -5},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "attempts", verr.Field)
}

func TestValidateRejectsNonPositiveSolveTimes(t *testing.T) {
	err := ValidateIncoming(nil, models.ProgressDocument{
		SolvedPuzzles: []string{"p1"},
		SolveTimes:    map[string]int64{"p1": 0},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "solveTimes", verr.Field)
}

func TestValidateRejectsOrphanSolveTime(t *testing.T) {
	// p2 is solved in neither document: cannot be fixed by merging
	stored := &models.ProgressDocument{SolvedPuzzles: []string{"p1"}}
	err := ValidateIncoming(stored, models.ProgressDocument{
		SolveTimes: map[string]int64{"p2": 3000},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "solveTimes", verr.Field)
}

func TestValidateAcceptsSolveTimeSolvedOnOtherDevice(t *testing.T) {
	// p1 solved only in the stored document: the union covers it
	stored := &models.ProgressDocument{SolvedPuzzles: []string{"p1"}}
	err := ValidateIncoming(stored, models.ProgressDocument{
		SolveTimes: map[string]int64{"p1": 3000},
	})
	assert.NoError(t, err)
}

func TestMergeScenarioTwoDeviceSync(t *testing.T) {
	first := models.ProgressDocument{
		SolvedPuzzles: []string{"p1"},
		HintsUsed:     map[string]int64{"p1": 2},
	}
	second := models.ProgressDocument{
		SolvedPuzzles: []string{"p2"},
		HintsUsed:     map[string]int64{"p1": 1, "p2": 0},
	}

	stored := MergeProgress(nil, first, mergeNow)
	merged := MergeProgress(&stored, second, mergeNow)

	assert.Equal(t, []string{"p1", "p2"}, merged.SolvedPuzzles)
	assert.Equal(t, map[string]int64{"p1": 2, "p2": 0}, merged.HintsUsed)
}
