package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

func testRun(tenantID, runID string) *models.FetchRun {
	return &models.FetchRun{
		RunID:    runID,
		TenantID: tenantID,
		Type:     models.RunTypeManual,
		Status:   models.RunStatusEnqueued,
	}
}

func TestRunStorage_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("t1", "run_1")))

	got, err := store.GetRun(ctx, "t1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusEnqueued, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRunStorage_CreateDuplicate(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("t1", "run_1")))
	assert.ErrorIs(t, store.CreateRun(ctx, testRun("t1", "run_1")), models.ErrAlreadyExists)
}

func TestRunStorage_MarkRunning(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("t1", "run_1")))

	run, err := store.MarkRunning(ctx, "t1", "run_1", 4)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, run.Status)
	assert.Equal(t, 4, run.Counters.FeedsCount)
	require.NotNil(t, run.StartedAt)
}

func TestRunStorage_FinishOnce(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("t1", "run_1")))
	_, err := store.MarkRunning(ctx, "t1", "run_1", 2)
	require.NoError(t, err)

	final := interfaces.RunFinal{
		Counters:   models.RunCounters{Found: 10, Candidates: 6, Added: 4, Updated: 2, SkippedOld: 3, NoTimestamp: 1, Writes: 6},
		DurationMs: 1234,
	}
	require.NoError(t, store.FinishRun(ctx, "t1", "run_1", models.RunStatusDone, final))

	got, err := store.GetRun(ctx, "t1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusDone, got.Status)
	assert.Equal(t, 2, got.Counters.FeedsCount, "feeds count survives the terminal merge")
	assert.Equal(t, 10, got.Counters.Found)
	assert.Equal(t, int64(1234), got.DurationMs)
	require.NotNil(t, got.CompletedAt)

	// A second finish must not overwrite the terminal snapshot.
	err = store.FinishRun(ctx, "t1", "run_1", models.RunStatusFailed, interfaces.RunFinal{Error: "late"})
	assert.ErrorIs(t, err, models.ErrRunTerminal)

	got, err = store.GetRun(ctx, "t1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusDone, got.Status)
	assert.Empty(t, got.Error)
}

func TestRunStorage_FinishRejectsNonTerminal(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("t1", "run_1")))
	err := store.FinishRun(ctx, "t1", "run_1", models.RunStatusRunning, interfaces.RunFinal{})
	assert.Error(t, err)
}

func TestRunStorage_MarkRunningAfterTerminal(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("t1", "run_1")))
	require.NoError(t, store.FinishRun(ctx, "t1", "run_1", models.RunStatusSkippedLock, interfaces.RunFinal{SkipReason: "lock"}))

	_, err := store.MarkRunning(ctx, "t1", "run_1", 1)
	assert.ErrorIs(t, err, models.ErrRunTerminal)
}

func TestRunStorage_HeartbeatMergesCounters(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("t1", "run_1")))
	_, err := store.MarkRunning(ctx, "t1", "run_1", 3)
	require.NoError(t, err)

	require.NoError(t, store.Heartbeat(ctx, "t1", "run_1", models.RunCounters{Found: 5, Candidates: 2}))

	got, err := store.GetRun(ctx, "t1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Counters.Found)
	assert.Equal(t, 3, got.Counters.FeedsCount)
	require.NotNil(t, got.UpdatedAt)
}

func TestRunStorage_HeartbeatNoopAfterTerminal(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("t1", "run_1")))
	require.NoError(t, store.FinishRun(ctx, "t1", "run_1", models.RunStatusDone, interfaces.RunFinal{
		Counters: models.RunCounters{Found: 9},
	}))

	require.NoError(t, store.Heartbeat(ctx, "t1", "run_1", models.RunCounters{Found: 99}))

	got, err := store.GetRun(ctx, "t1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Counters.Found, "heartbeat after terminal must be dropped")
}

func TestRunStorage_RecentRunsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		run := testRun("t1", fmt.Sprintf("run_%d", i))
		run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.CreateRun(ctx, run))
	}

	runs, err := store.RecentRuns(ctx, "t1", 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run_4", runs[0].RunID)
	assert.Equal(t, "run_3", runs[1].RunID)
	assert.Equal(t, "run_2", runs[2].RunID)
}

func TestRunStorage_HasActiveRun(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("t1", "run_1")))
	_, err := store.MarkRunning(ctx, "t1", "run_1", 1)
	require.NoError(t, err)

	active, err := store.HasActiveRun(ctx, "t1", "run_other", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, active)

	// The excluded run never blocks itself.
	active, err = store.HasActiveRun(ctx, "t1", "run_1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRunStorage_HasActiveRunLeaseExpired(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, testRun("t1", "run_1")))
	_, err := store.MarkRunning(ctx, "t1", "run_1", 1)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	// A lease shorter than the silence treats the run as abandoned.
	active, err := store.HasActiveRun(ctx, "t1", "run_other", 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRunStorage_DeleteRunsCreatedBefore(t *testing.T) {
	db := newTestDB(t)
	store := NewRunStorage(db, arbor.NewLogger())
	ctx := context.Background()

	old := testRun("t1", "run_old")
	old.CreatedAt = time.Now().AddDate(0, 0, -30)
	require.NoError(t, store.CreateRun(ctx, old))

	fresh := testRun("t1", "run_new")
	require.NoError(t, store.CreateRun(ctx, fresh))

	deleted, err := store.DeleteRunsCreatedBefore(ctx, "t1", time.Now().AddDate(0, 0, -14), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = store.GetRun(ctx, "t1", "run_old")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = store.GetRun(ctx, "t1", "run_new")
	assert.NoError(t, err)
}
