package models

import (
	"fmt"
	"time"
)

// RunType distinguishes how a run was initiated.
type RunType string

const (
	RunTypeScheduled RunType = "scheduled"
	RunTypeManual    RunType = "manual"
	RunTypeGC        RunType = "gc"
)

// RunStatus is the state-machine position of a run.
//
//	enqueued ──▶ running ──▶ done
//	                    └──▶ done_with_errors
//	                    └──▶ failed
//	enqueued ──▶ enqueue_failed
//	enqueued ──▶ skipped_lock_active
type RunStatus string

const (
	RunStatusEnqueued      RunStatus = "enqueued"
	RunStatusEnqueueFailed RunStatus = "enqueue_failed"
	RunStatusRunning       RunStatus = "running"
	RunStatusDone          RunStatus = "done"
	RunStatusDoneErrors    RunStatus = "done_with_errors"
	RunStatusFailed        RunStatus = "failed"
	RunStatusSkippedLock   RunStatus = "skipped_lock_active"
)

// Terminal reports whether the status can no longer transition.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusDone, RunStatusDoneErrors, RunStatusFailed, RunStatusEnqueueFailed, RunStatusSkippedLock:
		return true
	}
	return false
}

// RunCounters are the per-run ingestion counters. At terminal time the
// conservation rules hold: found = candidates + skippedOld + noTimestamp and
// writes = added + updated.
type RunCounters struct {
	FeedsCount       int `json:"feeds_count"`
	Found            int `json:"found"`
	Candidates       int `json:"candidates"`
	Added            int `json:"added"`
	Updated          int `json:"updated"`
	SkippedOld       int `json:"skipped_old"`
	SkippedUnchanged int `json:"skipped_unchanged"`
	NoTimestamp      int `json:"no_timestamp"`
	Writes           int `json:"writes"`
	Errors           int `json:"errors"`
}

// ErrorSample is one bounded diagnostic sample captured during a run.
type ErrorSample struct {
	URL     string    `json:"url"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// MaxErrorSamples bounds the error-sample list on a run document.
const MaxErrorSamples = 8

// FetchRun is one append-only per-tenant ingestion attempt.
type FetchRun struct {
	RunID    string    `json:"run_id"`
	TenantID string    `json:"tenant_id" badgerhold:"index"`
	Type     RunType   `json:"type"`
	Status   RunStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at" badgerhold:"index"`
	EnqueuedAt  *time.Time `json:"enqueued_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMs  int64      `json:"duration_ms,omitempty"`

	Counters     RunCounters   `json:"counters"`
	ErrorSamples []ErrorSample `json:"error_samples,omitempty"`
	Error        string        `json:"error,omitempty"`
	SkipReason   string        `json:"skip_reason,omitempty"`
}

// Key returns the storage key for this run.
func (r *FetchRun) Key() string {
	return RunKey(r.TenantID, r.RunID)
}

// RunKey builds the storage key for a run document.
func RunKey(tenantID, runID string) string {
	return fmt.Sprintf("run:%s:%s", tenantID, runID)
}

// RunMessage is the dispatch-queue payload carrying exactly one run
// descriptor to one worker invocation.
type RunMessage struct {
	TenantID string  `json:"tenant_id"`
	RunType  RunType `json:"run_type"`
	RunID    string  `json:"run_id"`
}
