package models

import (
	"fmt"
	"time"
)

// Company is a logical issuer derived from a feed. The company key is a pure
// function of the feed, so repeated runs always land on the same document.
type Company struct {
	TenantID    string    `json:"tenant_id" badgerhold:"index"`
	CompanyKey  string    `json:"company_key"`
	CompanyName string    `json:"company_name"`
	URL         string    `json:"url"`
	Source      Source    `json:"source"`
	LastSeenAt  time.Time `json:"last_seen_at" badgerhold:"index"`
}

// Key returns the storage key for this company.
func (c *Company) Key() string {
	return CompanyKey(c.TenantID, c.CompanyKey)
}

// CompanyKey builds the storage key for a company document.
func CompanyKey(tenantID, companyKey string) string {
	return fmt.Sprintf("company:%s:%s", tenantID, companyKey)
}
