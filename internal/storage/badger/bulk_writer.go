package badger

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

const (
	bulkWriterMaxAttempts   = 5
	bulkWriterBaseBackoff   = 50 * time.Millisecond
	bulkWriterBackoffJitter = 25 * time.Millisecond
)

// BulkWriter runs storage writes with bounded concurrency and retries
// transient failures with exponential backoff. Close blocks until every
// submitted write has finished, so callers can use it as a completion
// barrier before writing a terminal run status.
type BulkWriter struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	logger arbor.ILogger

	mu     sync.Mutex
	closed bool
}

// NewBulkWriter creates a writer that admits at most concurrency writes at
// once.
func NewBulkWriter(concurrency int, logger arbor.ILogger) *BulkWriter {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BulkWriter{
		sem:    make(chan struct{}, concurrency),
		logger: logger,
	}
}

// Submit schedules one write. The write runs asynchronously; onDone receives
// the final error after retries are exhausted (nil on success). Submit
// returns an error only when the writer is already closed or the context is
// cancelled before a slot frees up.
func (w *BulkWriter) Submit(ctx context.Context, write func() error, onDone func(err error)) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return fmt.Errorf("bulk writer is closed")
	}
	w.wg.Add(1)
	w.mu.Unlock()

	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		w.wg.Done()
		return ctx.Err()
	}

	go func() {
		defer func() {
			<-w.sem
			w.wg.Done()
		}()
		err := w.runWithRetry(ctx, write)
		if onDone != nil {
			onDone(err)
		}
	}()
	return nil
}

func (w *BulkWriter) runWithRetry(ctx context.Context, write func() error) error {
	var err error
	for attempt := 0; attempt < bulkWriterMaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := bulkWriterBaseBackoff << (attempt - 1)
			backoff += time.Duration(rand.Int63n(int64(bulkWriterBackoffJitter)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = write()
		if err == nil {
			return nil
		}
		if !IsTransientError(err) {
			return err
		}
		w.logger.Debug().Err(err).Int("attempt", attempt+1).Msg("Retrying transient write failure")
	}
	return fmt.Errorf("write failed after %d attempts: %w", bulkWriterMaxAttempts, err)
}

// Close waits for all in-flight writes to finish. Further submits fail.
func (w *BulkWriter) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.wg.Wait()
}
