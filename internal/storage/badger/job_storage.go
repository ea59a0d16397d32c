package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// multiGetChunkSize bounds one batched read of existing job documents.
const multiGetChunkSize = 450

// JobStorage implements the JobStorage interface for Badger
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{db: db, logger: logger}
}

// MultiGetSourceUpdated resolves stored sourceUpdatedMs for the given doc
// IDs. Reads are chunked and each chunk resolves inside one read
// transaction; missing documents map to nil.
func (s *JobStorage) MultiGetSourceUpdated(ctx context.Context, tenantID string, docIDs []string) (map[string]*int64, error) {
	result := make(map[string]*int64, len(docIDs))

	for start := 0; start < len(docIDs); start += multiGetChunkSize {
		end := start + multiGetChunkSize
		if end > len(docIDs) {
			end = len(docIDs)
		}
		chunk := docIDs[start:end]

		err := s.db.Store().Badger().View(func(txn *badgerdb.Txn) error {
			for _, docID := range chunk {
				key := fmt.Sprintf("job:%s:%s", tenantID, docID)
				var job models.JobPosting
				err := s.db.Store().TxGet(txn, key, &job)
				if err == badgerhold.ErrNotFound {
					result[docID] = nil
					continue
				}
				if err != nil {
					return fmt.Errorf("failed to read job %s: %w", docID, err)
				}
				ms := job.SourceUpdatedMs
				result[docID] = &ms
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// CreateJob atomically creates a posting document. Returns
// models.ErrAlreadyExists when the key is already present so the caller can
// fall back to a merge write.
func (s *JobStorage) CreateJob(ctx context.Context, job *models.JobPosting) error {
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.FirstSeenAt.IsZero() {
		job.FirstSeenAt = now
	}
	job.LastSeenAt = now

	if err := s.db.Store().Insert(job.Key(), job); err != nil {
		if err == badgerhold.ErrKeyExists {
			return models.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// MergeJob merges a posting over the stored document inside one update
// transaction. CreatedAt, FirstSeenAt, and the UI-owned Saved bit survive
// the merge (unless resetSaved), and stored freshness never regresses even
// when concurrent runs race.
func (s *JobStorage) MergeJob(ctx context.Context, job *models.JobPosting, resetSaved bool) error {
	now := time.Now()

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		var existing models.JobPosting
		err := s.db.Store().TxGet(txn, job.Key(), &existing)
		if err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to read existing job: %w", err)
		}

		merged := *job
		merged.LastSeenAt = now

		if err == nil {
			merged.CreatedAt = existing.CreatedAt
			merged.FirstSeenAt = existing.FirstSeenAt
			if !resetSaved {
				merged.Saved = existing.Saved
			}
			if existing.SourceUpdatedMs > merged.SourceUpdatedMs {
				merged.SourceUpdatedIso = existing.SourceUpdatedIso
				merged.SourceUpdatedTs = existing.SourceUpdatedTs
				merged.SourceUpdatedMs = existing.SourceUpdatedMs
			}
		} else {
			if merged.CreatedAt.IsZero() {
				merged.CreatedAt = now
			}
			if merged.FirstSeenAt.IsZero() {
				merged.FirstSeenAt = now
			}
		}

		return s.db.Store().TxUpsert(txn, job.Key(), &merged)
	})
	if err != nil {
		return fmt.Errorf("failed to merge job: %w", err)
	}
	return nil
}

func (s *JobStorage) GetJob(ctx context.Context, tenantID, companyKey, upstreamJobID string) (*models.JobPosting, error) {
	var job models.JobPosting
	if err := s.db.Store().Get(models.JobKey(tenantID, companyKey, upstreamJobID), &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (s *JobStorage) CountJobs(ctx context.Context, tenantID string) (int, error) {
	count, err := s.db.Store().Count(&models.JobPosting{}, badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID"))
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return int(count), nil
}

func (s *JobStorage) DeleteJobsUpdatedBefore(ctx context.Context, tenantID string, cutoff time.Time, limit int) (int, error) {
	var jobs []models.JobPosting
	query := badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID").
		And("SourceUpdatedTs").Lt(cutoff).Limit(limit)
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return 0, fmt.Errorf("failed to query stale jobs: %w", err)
	}

	deleted := 0
	for i := range jobs {
		if err := s.db.Store().Delete(jobs[i].Key(), &models.JobPosting{}); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return deleted, fmt.Errorf("failed to delete job %s: %w", jobs[i].DocID(), err)
		}
		deleted++
	}
	return deleted, nil
}
