package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/storage/badger"
)

// Upserter writes candidate postings for one run. Existence and freshness
// are resolved in one batched read per feed, then each posting takes exactly
// one write path: create, merge, or skip.
type Upserter struct {
	jobs       interfaces.JobStorage
	writer     *badger.BulkWriter
	counters   *runCounters
	samples    *sampleRing
	resetSaved bool
	logger     arbor.ILogger
}

// NewUpserter creates an upserter bound to one run's bulk writer and
// counters.
func NewUpserter(jobs interfaces.JobStorage, writer *badger.BulkWriter, counters *runCounters, samples *sampleRing, resetSaved bool, logger arbor.ILogger) *Upserter {
	return &Upserter{
		jobs:       jobs,
		writer:     writer,
		counters:   counters,
		samples:    samples,
		resetSaved: resetSaved,
		logger:     logger,
	}
}

// UpsertBatch resolves the stored freshness of every candidate in one
// batched read, then routes each candidate:
//
//	missing document            -> create (merge on a create race)
//	stored freshness >= incoming -> skip, counted skipped_unchanged
//	stored freshness <  incoming -> merge
//
// Writes run asynchronously on the bulk writer; the run's Close barrier
// settles counters before the terminal ledger write.
func (u *Upserter) UpsertBatch(ctx context.Context, tenantID string, candidates []*models.JobPosting) error {
	if len(candidates) == 0 {
		return nil
	}

	docIDs := make([]string, len(candidates))
	for i, job := range candidates {
		docIDs[i] = job.DocID()
	}

	existing, err := u.jobs.MultiGetSourceUpdated(ctx, tenantID, docIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve existing postings: %w", err)
	}

	for i := range candidates {
		job := candidates[i]
		stored := existing[job.DocID()]

		switch {
		case stored == nil:
			u.submitCreate(ctx, job)
		case *stored >= job.SourceUpdatedMs:
			u.counters.skippedUnchanged.Add(1)
		default:
			u.submitMerge(ctx, job)
		}
	}

	return nil
}

func (u *Upserter) submitCreate(ctx context.Context, job *models.JobPosting) {
	err := u.writer.Submit(ctx, func() error {
		err := u.jobs.CreateJob(ctx, job)
		if errors.Is(err, models.ErrAlreadyExists) {
			// Another run created it between the batched read and this
			// write. Merge preserves whichever freshness is newer.
			if mergeErr := u.jobs.MergeJob(ctx, job, u.resetSaved); mergeErr != nil {
				return mergeErr
			}
			u.counters.updated.Add(1)
			return nil
		}
		if err != nil {
			return err
		}
		u.counters.added.Add(1)
		return nil
	}, func(err error) {
		if err != nil {
			u.recordWriteError(job, err)
		}
	})
	if err != nil {
		u.recordWriteError(job, err)
	}
}

func (u *Upserter) submitMerge(ctx context.Context, job *models.JobPosting) {
	err := u.writer.Submit(ctx, func() error {
		if err := u.jobs.MergeJob(ctx, job, u.resetSaved); err != nil {
			return err
		}
		u.counters.updated.Add(1)
		return nil
	}, func(err error) {
		if err != nil {
			u.recordWriteError(job, err)
		}
	})
	if err != nil {
		u.recordWriteError(job, err)
	}
}

func (u *Upserter) recordWriteError(job *models.JobPosting, err error) {
	u.counters.errors.Add(1)
	u.samples.Add(job.CanonicalURL, err.Error())
	u.logger.Warn().
		Err(err).
		Str("doc_id", job.DocID()).
		Msg("Posting write failed")
}
