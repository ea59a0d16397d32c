package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/venari/internal/models"
)

// TenantStorage anchors tenant enumeration for the scheduler. Tenants are
// created and destroyed externally; ingestion only needs to list them.
type TenantStorage interface {
	EnsureTenant(ctx context.Context, tenantID string) error
	ListTenantIDs(ctx context.Context) ([]string, error)
}

// FeedStorage persists per-tenant feed subscriptions.
type FeedStorage interface {
	SaveFeed(ctx context.Context, feed *models.Feed) error
	GetFeed(ctx context.Context, tenantID, feedID string) (*models.Feed, error)
	ListFeeds(ctx context.Context, tenantID string) ([]*models.Feed, error)
	// ListIngestibleFeeds returns active, non-archived feeds only.
	ListIngestibleFeeds(ctx context.Context, tenantID string) ([]*models.Feed, error)
	ArchiveFeed(ctx context.Context, tenantID, feedID string) error
	RestoreFeed(ctx context.Context, tenantID, feedID string) error
	SetFeedError(ctx context.Context, tenantID, feedID, message string) error
}

// CompanyStorage persists per-tenant company records derived from feeds.
type CompanyStorage interface {
	UpsertCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, tenantID, companyKey string) (*models.Company, error)
	DeleteCompaniesNotSeenSince(ctx context.Context, tenantID string, cutoff time.Time, limit int) (int, error)
}

// JobStorage persists job postings. CreateJob is atomic and returns
// models.ErrAlreadyExists on a key race so callers can fall back to a merge.
type JobStorage interface {
	// MultiGetSourceUpdated resolves stored sourceUpdatedMs for the given
	// document IDs in one batched read (chunked internally). Missing
	// documents map to nil.
	MultiGetSourceUpdated(ctx context.Context, tenantID string, docIDs []string) (map[string]*int64, error)
	CreateJob(ctx context.Context, job *models.JobPosting) error
	// MergeJob merges over an existing document, preserving createdAt,
	// firstSeenAt, and (unless resetSaved) the UI-owned saved bit. Stored
	// freshness never regresses.
	MergeJob(ctx context.Context, job *models.JobPosting, resetSaved bool) error
	GetJob(ctx context.Context, tenantID, companyKey, upstreamJobID string) (*models.JobPosting, error)
	CountJobs(ctx context.Context, tenantID string) (int, error)
	DeleteJobsUpdatedBefore(ctx context.Context, tenantID string, cutoff time.Time, limit int) (int, error)
}

// RunFinal carries the terminal snapshot written when a run finishes.
type RunFinal struct {
	Counters     models.RunCounters
	ErrorSamples []models.ErrorSample
	Error        string
	SkipReason   string
	DurationMs   int64
}

// RunStorage is the append-only run ledger. Status writes are merges that
// never regress a terminal status.
type RunStorage interface {
	CreateRun(ctx context.Context, run *models.FetchRun) error
	GetRun(ctx context.Context, tenantID, runID string) (*models.FetchRun, error)
	// MarkRunning transitions enqueued -> running. Returns
	// models.ErrRunTerminal when the run already reached a terminal status.
	MarkRunning(ctx context.Context, tenantID, runID string, feedsCount int) (*models.FetchRun, error)
	// Heartbeat merges in-progress counters; a no-op once the run is terminal.
	Heartbeat(ctx context.Context, tenantID, runID string, counters models.RunCounters) error
	// FinishRun writes a terminal status exactly once; a second call returns
	// models.ErrRunTerminal.
	FinishRun(ctx context.Context, tenantID, runID string, status models.RunStatus, final RunFinal) error
	RecentRuns(ctx context.Context, tenantID string, limit int) ([]*models.FetchRun, error)
	// HasActiveRun reports whether another run for the tenant is running
	// within its heartbeat lease.
	HasActiveRun(ctx context.Context, tenantID, excludeRunID string, lease time.Duration) (bool, error)
	DeleteRunsCreatedBefore(ctx context.Context, tenantID string, cutoff time.Time, limit int) (int, error)
}

// StorageManager aggregates the per-collection storages over one database.
type StorageManager interface {
	Tenants() TenantStorage
	Feeds() FeedStorage
	Companies() CompanyStorage
	Jobs() JobStorage
	Runs() RunStorage
	Close() error
}

// Dispatcher enqueues run descriptors for asynchronous execution.
type Dispatcher interface {
	Enqueue(ctx context.Context, msg models.RunMessage) error
}

// SchedulerService drives periodic ingestion and GC runs.
type SchedulerService interface {
	Start() error
	Stop() error
	IsRunning() bool
	// TriggerRun creates a ledger entry and enqueues one run for the tenant.
	TriggerRun(ctx context.Context, tenantID string, runType models.RunType) (string, error)
}
