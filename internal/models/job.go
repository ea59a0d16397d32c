package models

import (
	"fmt"
	"time"
)

// MetadataKind tags the concrete shape held by a MetadataValue.
type MetadataKind string

const (
	MetadataKindText     MetadataKind = "text"
	MetadataKindNumber   MetadataKind = "number"
	MetadataKindList     MetadataKind = "list"
	MetadataKindCurrency MetadataKind = "currency"
)

// MetadataValue is a tagged record covering the value shapes upstream boards
// emit: plain string, number, list of strings, or a {unit, amount} currency.
type MetadataValue struct {
	Kind   MetadataKind `json:"kind"`
	Text   string       `json:"text,omitempty"`
	Number float64      `json:"number,omitempty"`
	List   []string     `json:"list,omitempty"`
	Unit   string       `json:"unit,omitempty"`
	Amount float64      `json:"amount,omitempty"`
}

// Empty reports whether the value carries no content and should be dropped.
func (v MetadataValue) Empty() bool {
	switch v.Kind {
	case MetadataKindText:
		return v.Text == ""
	case MetadataKindList:
		return len(v.List) == 0
	case MetadataKindCurrency:
		return v.Unit == "" && v.Amount == 0
	case MetadataKindNumber:
		return false
	}
	return true
}

// MetadataEntry is one named metadata value in upstream order.
type MetadataEntry struct {
	Name  string        `json:"name"`
	Value MetadataValue `json:"value"`
}

// JobPosting is one posting owned by a company within a tenant. Identity is
// (companyKey, upstreamJobId). The stored SourceUpdatedMs only ever advances.
type JobPosting struct {
	TenantID      string `json:"tenant_id" badgerhold:"index"`
	CompanyKey    string `json:"company_key"`
	UpstreamJobID string `json:"upstream_job_id"`

	Title        string   `json:"title"`
	CanonicalURL string   `json:"canonical_url"`
	ApplyURL     string   `json:"apply_url,omitempty"`
	LocationText string   `json:"location_text"`
	StateCodes   []string `json:"state_codes,omitempty"`
	Remote       bool     `json:"remote"`
	Source       Source   `json:"source"`

	Metadata   []MetadataEntry          `json:"metadata,omitempty"`
	MetadataKV map[string]MetadataValue `json:"metadata_kv,omitempty"`
	Content    string                   `json:"content,omitempty"` // cleaned HTML body

	// Freshness, three representations of the same instant. SourceUpdatedMs
	// is the comparison key used everywhere.
	SourceUpdatedIso string    `json:"source_updated_iso"`
	SourceUpdatedTs  time.Time `json:"source_updated_ts" badgerhold:"index"`
	SourceUpdatedMs  int64     `json:"source_updated_ms"`

	// Saved is a UI-owned bookmark bit. Ingestion merges never touch it
	// unless the operator opts into reset-on-ingest.
	Saved bool `json:"saved"`

	CreatedAt   time.Time `json:"created_at"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// DocID returns the document identity within a tenant: companyKey__upstreamJobId.
func (j *JobPosting) DocID() string {
	return JobDocID(j.CompanyKey, j.UpstreamJobID)
}

// Key returns the storage key for this posting.
func (j *JobPosting) Key() string {
	return JobKey(j.TenantID, j.CompanyKey, j.UpstreamJobID)
}

// JobDocID builds the per-tenant document identity for a posting.
func JobDocID(companyKey, upstreamJobID string) string {
	return companyKey + "__" + upstreamJobID
}

// JobKey builds the storage key for a posting document.
func JobKey(tenantID, companyKey, upstreamJobID string) string {
	return fmt.Sprintf("job:%s:%s", tenantID, JobDocID(companyKey, upstreamJobID))
}
