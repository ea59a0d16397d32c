package models

import (
	"fmt"
	"time"
)

// Feed is a per-tenant subscription to one upstream board endpoint.
// Inactive or archived feeds never contribute jobs.
type Feed struct {
	TenantID   string     `json:"tenant_id" badgerhold:"index"`
	FeedID     string     `json:"feed_id"`
	Company    string     `json:"company"`
	URL        string     `json:"url"`
	Active     bool       `json:"active"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	Source     Source     `json:"source,omitempty"` // optional declared source tag
	LastError  string     `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Key returns the storage key for this feed.
func (f *Feed) Key() string {
	return FeedKey(f.TenantID, f.FeedID)
}

// FeedKey builds the storage key for a feed document.
func FeedKey(tenantID, feedID string) string {
	return fmt.Sprintf("feed:%s:%s", tenantID, feedID)
}

// Ingestible reports whether the feed may contribute jobs to a run.
func (f *Feed) Ingestible() bool {
	return f.Active && f.ArchivedAt == nil
}

// Tenant is an isolated namespace owned by a single end user. Tenants are
// created externally by authentication; this record only anchors the
// per-tenant subcollections for enumeration by the scheduler.
type Tenant struct {
	TenantID  string    `json:"tenant_id" badgerhold:"unique"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantKey builds the storage key for a tenant document.
func TenantKey(tenantID string) string {
	return "tenant:" + tenantID
}
