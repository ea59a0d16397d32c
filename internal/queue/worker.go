package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

// Handler processes one dequeued run message. A nil return acknowledges the
// message; an error leaves it in the queue so the visibility timeout
// redelivers it, up to the queue's receive cap.
type Handler func(ctx context.Context, msg models.RunMessage) error

// WorkerPool runs a fixed set of workers polling the dispatch queue.
type WorkerPool struct {
	manager      *Manager
	handlers     map[models.RunType]Handler
	concurrency  int
	pollInterval time.Duration
	logger       arbor.ILogger
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewWorkerPool creates a worker pool over the queue manager.
func NewWorkerPool(manager *Manager, concurrency int, pollInterval time.Duration, logger arbor.ILogger) *WorkerPool {
	if concurrency <= 0 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		manager:      manager,
		handlers:     make(map[models.RunType]Handler),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// RegisterHandler registers the handler for one run type. Call before Start.
func (wp *WorkerPool) RegisterHandler(runType models.RunType, handler Handler) {
	wp.handlers[runType] = handler
	wp.logger.Debug().Str("run_type", string(runType)).Msg("Run handler registered")
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() error {
	wp.logger.Info().
		Int("concurrency", wp.concurrency).
		Dur("poll_interval", wp.pollInterval).
		Msg("Starting worker pool")

	for i := 0; i < wp.concurrency; i++ {
		workerID := i
		common.SafeGo(wp.logger, fmt.Sprintf("queue-worker-%d", workerID), func() {
			wp.worker(workerID)
		})
	}
	return nil
}

// Stop cancels all workers. In-flight handlers observe the cancelled context.
func (wp *WorkerPool) Stop() error {
	wp.logger.Info().Msg("Stopping worker pool")
	wp.cancel()
	return nil
}

func (wp *WorkerPool) worker(workerID int) {
	// Stagger worker starts so pollers do not hammer the database in lockstep.
	stagger := (wp.pollInterval / time.Duration(wp.concurrency)) * time.Duration(workerID)
	if stagger > 0 {
		select {
		case <-time.After(stagger):
		case <-wp.ctx.Done():
			return
		}
	}

	ticker := time.NewTicker(wp.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug().Int("worker_id", workerID).Msg("Worker stopped")
			return
		case <-ticker.C:
			if err := wp.processOne(workerID); err != nil && err != ErrNoMessage {
				wp.logger.Warn().
					Err(err).
					Int("worker_id", workerID).
					Msg("Error processing message")
			}
		}
	}
}

func (wp *WorkerPool) processOne(workerID int) error {
	delivery, err := wp.manager.Receive(wp.ctx)
	if err != nil {
		return err
	}

	handler, ok := wp.handlers[delivery.Body.RunType]
	if !ok {
		wp.logger.Error().
			Str("run_type", string(delivery.Body.RunType)).
			Str("message_id", delivery.ID).
			Msg("No handler registered for run type")
		// Nothing will ever handle it; acknowledge to stop redelivery.
		if delErr := wp.manager.Delete(wp.ctx, delivery.ID); delErr != nil {
			wp.logger.Warn().Err(delErr).Msg("Failed to delete unhandled message")
		}
		return fmt.Errorf("no handler for run type %s", delivery.Body.RunType)
	}

	wp.logger.Debug().
		Str("message_id", delivery.ID).
		Str("run_id", delivery.Body.RunID).
		Str("tenant_id", delivery.Body.TenantID).
		Int("receive_count", delivery.ReceiveCount).
		Int("worker_id", workerID).
		Msg("Processing run message")

	start := time.Now()
	handlerErr := handler(wp.ctx, delivery.Body)

	if handlerErr != nil {
		// Leave the message in place: the visibility timeout redelivers it
		// and the receive cap eventually drops it.
		wp.logger.Error().
			Err(handlerErr).
			Str("message_id", delivery.ID).
			Str("run_id", delivery.Body.RunID).
			Dur("duration", time.Since(start)).
			Int("worker_id", workerID).
			Msg("Run handler failed, message left for redelivery")
		return handlerErr
	}

	if err := wp.manager.Delete(wp.ctx, delivery.ID); err != nil {
		wp.logger.Warn().
			Err(err).
			Str("message_id", delivery.ID).
			Msg("Failed to delete message after successful run")
		return err
	}

	wp.logger.Info().
		Str("message_id", delivery.ID).
		Str("run_id", delivery.Body.RunID).
		Str("tenant_id", delivery.Body.TenantID).
		Dur("duration", time.Since(start)).
		Int("worker_id", workerID).
		Msg("Run message completed")
	return nil
}
