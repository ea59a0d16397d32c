package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/storage/badger"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	messages []models.RunMessage
	err      error
}

func (f *fakeDispatcher) Enqueue(ctx context.Context, msg models.RunMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func newTestService(t *testing.T, dispatcher interfaces.Dispatcher) (*Service, interfaces.StorageManager) {
	t.Helper()
	storage, err := badger.NewManager(&common.BadgerConfig{Path: t.TempDir()}, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	config := &common.SchedulerConfig{
		Enabled:            true,
		PollSchedule:       "*/30 * * * *",
		GCSchedule:         "0 3 */2 * *",
		Timezone:           "UTC",
		EnqueueConcurrency: 4,
	}
	svc, err := NewService(config, storage, dispatcher, arbor.NewLogger())
	require.NoError(t, err)
	return svc.(*Service), storage
}

func TestTriggerRun_CreatesLedgerAndEnqueues(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc, storage := newTestService(t, dispatcher)
	ctx := context.Background()

	runID, err := svc.TriggerRun(ctx, "t1", models.RunTypeManual)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	run, err := storage.Runs().GetRun(ctx, "t1", runID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusEnqueued, run.Status)
	assert.Equal(t, models.RunTypeManual, run.Type)
	require.NotNil(t, run.EnqueuedAt)

	require.Len(t, dispatcher.messages, 1)
	assert.Equal(t, runID, dispatcher.messages[0].RunID)
	assert.Equal(t, "t1", dispatcher.messages[0].TenantID)
	assert.Equal(t, models.RunTypeManual, dispatcher.messages[0].RunType)
}

func TestTriggerRun_EnqueueFailureRecordedTerminal(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("queue unavailable")}
	svc, storage := newTestService(t, dispatcher)
	ctx := context.Background()

	runID, err := svc.TriggerRun(ctx, "t1", models.RunTypeScheduled)
	require.Error(t, err)
	require.NotEmpty(t, runID, "ledger entry exists even when enqueue fails")

	run, lerr := storage.Runs().GetRun(ctx, "t1", runID)
	require.NoError(t, lerr)
	assert.Equal(t, models.RunStatusEnqueueFailed, run.Status)
	assert.Contains(t, run.Error, "queue unavailable")
	require.NotNil(t, run.CompletedAt)
}

func TestService_StartStop(t *testing.T) {
	svc, _ := newTestService(t, &fakeDispatcher{})

	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())
	assert.Error(t, svc.Start(), "double start is rejected")

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())
	require.NoError(t, svc.Stop(), "stop is idempotent")
}

func TestService_InvalidTimezone(t *testing.T) {
	config := &common.SchedulerConfig{
		PollSchedule: "*/30 * * * *",
		GCSchedule:   "0 3 * * *",
		Timezone:     "Not/AZone",
	}
	_, err := NewService(config, nil, &fakeDispatcher{}, arbor.NewLogger())
	assert.Error(t, err)
}
