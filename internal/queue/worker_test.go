package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/models"
)

func TestWorkerPool_HandlerSuccessAcknowledges(t *testing.T) {
	mgr := newTestQueue(t, time.Minute, 3)
	ctx := context.Background()

	require.NoError(t, mgr.Enqueue(ctx, testMessage("run_1")))

	pool := NewWorkerPool(mgr, 1, time.Minute, arbor.NewLogger())
	pool.RegisterHandler(models.RunTypeManual, func(ctx context.Context, msg models.RunMessage) error {
		assert.Equal(t, "run_1", msg.RunID)
		return nil
	})

	require.NoError(t, pool.processOne(0))

	depth, err := mgr.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, depth)
}

func TestWorkerPool_HandlerFailureLeavesMessage(t *testing.T) {
	mgr := newTestQueue(t, 20*time.Millisecond, 3)
	ctx := context.Background()

	require.NoError(t, mgr.Enqueue(ctx, testMessage("run_1")))

	pool := NewWorkerPool(mgr, 1, time.Minute, arbor.NewLogger())
	handlerErr := errors.New("transient storage failure")
	pool.RegisterHandler(models.RunTypeManual, func(ctx context.Context, msg models.RunMessage) error {
		return handlerErr
	})

	err := pool.processOne(0)
	assert.ErrorIs(t, err, handlerErr)

	// The message stays queued and comes back after the visibility timeout.
	time.Sleep(40 * time.Millisecond)
	delivery, err := mgr.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run_1", delivery.Body.RunID)
	assert.Equal(t, 2, delivery.ReceiveCount)
}

func TestWorkerPool_NoHandlerDropsMessage(t *testing.T) {
	mgr := newTestQueue(t, time.Minute, 3)
	ctx := context.Background()

	require.NoError(t, mgr.Enqueue(ctx, testMessage("run_1")))

	pool := NewWorkerPool(mgr, 1, time.Minute, arbor.NewLogger())

	err := pool.processOne(0)
	assert.Error(t, err)

	depth, err := mgr.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, depth)
}

func TestWorkerPool_EmptyQueue(t *testing.T) {
	mgr := newTestQueue(t, time.Minute, 3)

	pool := NewWorkerPool(mgr, 1, time.Minute, arbor.NewLogger())
	assert.ErrorIs(t, pool.processOne(0), ErrNoMessage)
}
