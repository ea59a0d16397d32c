package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// RunStorage implements the append-only run ledger on Badger. All status
// writes are transactional merges so a terminal status never regresses.
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{db: db, logger: logger}
}

func (s *RunStorage) CreateRun(ctx context.Context, run *models.FetchRun) error {
	if run.TenantID == "" {
		return fmt.Errorf("run tenant ID is required")
	}
	if run.RunID == "" {
		return fmt.Errorf("run ID is required")
	}
	if run.Status == "" {
		run.Status = models.RunStatusEnqueued
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	if err := s.db.Store().Insert(run.Key(), run); err != nil {
		if err == badgerhold.ErrKeyExists {
			return models.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (s *RunStorage) GetRun(ctx context.Context, tenantID, runID string) (*models.FetchRun, error) {
	var run models.FetchRun
	if err := s.db.Store().Get(models.RunKey(tenantID, runID), &run); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// mutateRun applies fn to the stored run inside one update transaction.
func (s *RunStorage) mutateRun(tenantID, runID string, fn func(run *models.FetchRun) error) (*models.FetchRun, error) {
	var result *models.FetchRun
	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		key := models.RunKey(tenantID, runID)
		var run models.FetchRun
		if err := s.db.Store().TxGet(txn, key, &run); err != nil {
			if err == badgerhold.ErrNotFound {
				return models.ErrNotFound
			}
			return fmt.Errorf("failed to read run: %w", err)
		}

		if err := fn(&run); err != nil {
			return err
		}

		if err := s.db.Store().TxUpsert(txn, key, &run); err != nil {
			return fmt.Errorf("failed to write run: %w", err)
		}
		result = &run
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkRunning transitions enqueued -> running. A redelivered message hitting
// a terminal run gets models.ErrRunTerminal so the worker can no-op.
func (s *RunStorage) MarkRunning(ctx context.Context, tenantID, runID string, feedsCount int) (*models.FetchRun, error) {
	return s.mutateRun(tenantID, runID, func(run *models.FetchRun) error {
		if run.Status.Terminal() {
			return models.ErrRunTerminal
		}
		now := time.Now()
		run.Status = models.RunStatusRunning
		run.StartedAt = &now
		run.UpdatedAt = &now
		run.Counters.FeedsCount = feedsCount
		return nil
	})
}

// Heartbeat merges in-progress counters onto the run. Once the run is
// terminal the heartbeat is silently dropped.
func (s *RunStorage) Heartbeat(ctx context.Context, tenantID, runID string, counters models.RunCounters) error {
	_, err := s.mutateRun(tenantID, runID, func(run *models.FetchRun) error {
		if run.Status.Terminal() {
			return nil
		}
		now := time.Now()
		counters.FeedsCount = run.Counters.FeedsCount
		run.Counters = counters
		run.UpdatedAt = &now
		return nil
	})
	return err
}

// FinishRun writes the terminal snapshot exactly once. A second finish, or a
// finish racing a redelivered worker, returns models.ErrRunTerminal.
func (s *RunStorage) FinishRun(ctx context.Context, tenantID, runID string, status models.RunStatus, final interfaces.RunFinal) error {
	if !status.Terminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}

	_, err := s.mutateRun(tenantID, runID, func(run *models.FetchRun) error {
		if run.Status.Terminal() {
			return models.ErrRunTerminal
		}
		now := time.Now()
		final.Counters.FeedsCount = run.Counters.FeedsCount
		if status == models.RunStatusEnqueueFailed || status == models.RunStatusSkippedLock {
			final.Counters = run.Counters
		}

		run.Status = status
		run.CompletedAt = &now
		run.UpdatedAt = &now
		run.Counters = final.Counters
		run.Error = final.Error
		run.SkipReason = final.SkipReason
		run.DurationMs = final.DurationMs

		samples := final.ErrorSamples
		if len(samples) > models.MaxErrorSamples {
			samples = samples[:models.MaxErrorSamples]
		}
		run.ErrorSamples = samples
		return nil
	})
	return err
}

func (s *RunStorage) RecentRuns(ctx context.Context, tenantID string, limit int) ([]*models.FetchRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []models.FetchRun
	query := badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID").
		SortBy("CreatedAt").Reverse().Limit(limit)
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]*models.FetchRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

// HasActiveRun reports whether another run for the tenant is running within
// its heartbeat lease. Runs whose last update is older than the lease are
// treated as abandoned and do not block.
func (s *RunStorage) HasActiveRun(ctx context.Context, tenantID, excludeRunID string, lease time.Duration) (bool, error) {
	var runs []models.FetchRun
	query := badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID").
		And("Status").Eq(models.RunStatusRunning)
	if err := s.db.Store().Find(&runs, query); err != nil {
		return false, fmt.Errorf("failed to query active runs: %w", err)
	}

	threshold := time.Now().Add(-lease)
	for i := range runs {
		if runs[i].RunID == excludeRunID {
			continue
		}
		last := runs[i].StartedAt
		if runs[i].UpdatedAt != nil {
			last = runs[i].UpdatedAt
		}
		if last != nil && last.After(threshold) {
			return true, nil
		}
	}
	return false, nil
}

func (s *RunStorage) DeleteRunsCreatedBefore(ctx context.Context, tenantID string, cutoff time.Time, limit int) (int, error) {
	var runs []models.FetchRun
	query := badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID").
		And("CreatedAt").Lt(cutoff).Limit(limit)
	if err := s.db.Store().Find(&runs, query); err != nil {
		return 0, fmt.Errorf("failed to query old runs: %w", err)
	}

	// Oldest first so repeated bounded passes drain the tail deterministically.
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.Before(runs[j].CreatedAt) })

	deleted := 0
	for i := range runs {
		if err := s.db.Store().Delete(runs[i].Key(), &models.FetchRun{}); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return deleted, fmt.Errorf("failed to delete run %s: %w", runs[i].RunID, err)
		}
		deleted++
	}
	return deleted, nil
}
