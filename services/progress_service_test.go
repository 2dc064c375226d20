package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"puzzle-game-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProgressNeverSynced(t *testing.T) {
	db := testDB(t)
	svc := NewProgressService(db, nil)

	doc, err := svc.GetProgress(context.Background(), "user-"+uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestSyncProgressFirstSync(t *testing.T) {
	db := testDB(t)
	svc := NewProgressService(db, nil)
	uid := "user-" + uuid.NewString()

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	incoming := models.ProgressDocument{
		SolvedPuzzles: []string{"p2", "p1", "p1"},
		HintsUsed:     map[string]int64{"p1": 2},
		SolveTimes:    map[string]int64{"p1": 9000},
	}

	merged, err := svc.SyncProgress(context.Background(), uid, incoming)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, merged.SolvedPuzzles)
	assert.Equal(t, fixed, merged.UpdatedAt)

	stored, err := svc.GetProgress(context.Background(), uid)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, *merged, *stored)
}

func TestSyncProgressTwoDevices(t *testing.T) {
	db := testDB(t)
	svc := NewProgressService(db, nil)
	uid := "user-" + uuid.NewString()

	deviceA := models.ProgressDocument{
		SolvedPuzzles: []string{"p1", "p2"},
		Attempts:      map[string]int64{"p1": 3, "p2": 5},
		SolveTimes:    map[string]int64{"p1": 10000, "p2": 40000},
	}
	deviceB := models.ProgressDocument{
		SolvedPuzzles: []string{"p2", "p3"},
		Attempts:      map[string]int64{"p2": 2, "p3": 1},
		SolveTimes:    map[string]int64{"p2": 35000, "p3": 12000},
	}

	_, err := svc.SyncProgress(context.Background(), uid, deviceA)
	require.NoError(t, err)
	merged, err := svc.SyncProgress(context.Background(), uid, deviceB)
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2", "p3"}, merged.SolvedPuzzles)
	assert.Equal(t, int64(5), merged.Attempts["p2"], "per-puzzle attempts take the max")
	assert.Equal(t, int64(35000), merged.SolveTimes["p2"], "per-puzzle solve time takes the min")
	assert.Equal(t, int64(10000), merged.SolveTimes["p1"])
	assert.Equal(t, int64(12000), merged.SolveTimes["p3"])
}

func TestSyncProgressRejectsInvalidSnapshot(t *testing.T) {
	db := testDB(t)
	svc := NewProgressService(db, nil)
	uid := "user-" + uuid.NewString()

	var verr *ValidationError
	_, err := svc.SyncProgress(context.Background(), uid, models.ProgressDocument{
		HintsUsed: map[string]int64{"p1": -1},
	})
	require.ErrorAs(t, err, &verr)

	// the rejected sync left nothing behind
	doc, err := svc.GetProgress(context.Background(), uid)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestSyncProgressConcurrentBothIncorporated(t *testing.T) {
	db := testDB(t)
	svc := NewProgressService(db, nil)
	uid := "user-" + uuid.NewString()

	_, err := svc.SyncProgress(context.Background(), uid, models.ProgressDocument{
		SolvedPuzzles: []string{"p0"},
		SolveTimes:    map[string]int64{"p0": 5000},
	})
	require.NoError(t, err)

	snapshots := []models.ProgressDocument{
		{SolvedPuzzles: []string{"p0", "pa"}, SolveTimes: map[string]int64{"p0": 5000, "pa": 7000}},
		{SolvedPuzzles: []string{"p0", "pb"}, SolveTimes: map[string]int64{"p0": 4000, "pb": 8000}},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(snapshots))
	for i, snap := range snapshots {
		wg.Add(1)
		go func(i int, snap models.ProgressDocument) {
			defer wg.Done()
			_, errs[i] = svc.SyncProgress(context.Background(), uid, snap)
		}(i, snap)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	final, err := svc.GetProgress(context.Background(), uid)
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, []string{"p0", "pa", "pb"}, final.SolvedPuzzles)
	assert.Equal(t, int64(4000), final.SolveTimes["p0"], "the faster solve time survives")
	assert.Equal(t, int64(7000), final.SolveTimes["pa"])
	assert.Equal(t, int64(8000), final.SolveTimes["pb"])
}

func TestSyncProgressRepeatSnapshotIsStable(t *testing.T) {
	db := testDB(t)
	svc := NewProgressService(db, nil)
	uid := "user-" + uuid.NewString()

	snap := models.ProgressDocument{
		SolvedPuzzles:       []string{"p1"},
		Achievements:        []string{"first-blood"},
		HintsUsed:           map[string]int64{"p1": 1},
		Attempts:            map[string]int64{"p1": 4},
		SolveTimes:          map[string]int64{"p1": 20000},
		GlobalWrongAttempts: 7,
		IntroSeen:           true,
	}

	first, err := svc.SyncProgress(context.Background(), uid, snap)
	require.NoError(t, err)
	second, err := svc.SyncProgress(context.Background(), uid, snap)
	require.NoError(t, err)

	first.UpdatedAt = second.UpdatedAt
	assert.Equal(t, *first, *second)
}
