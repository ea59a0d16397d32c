package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// CompanyStorage implements the CompanyStorage interface for Badger
type CompanyStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCompanyStorage creates a new CompanyStorage instance
func NewCompanyStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CompanyStorage {
	return &CompanyStorage{db: db, logger: logger}
}

func (s *CompanyStorage) UpsertCompany(ctx context.Context, company *models.Company) error {
	if company.TenantID == "" {
		return fmt.Errorf("company tenant ID is required")
	}
	if company.CompanyKey == "" {
		return fmt.Errorf("company key is required")
	}

	if company.LastSeenAt.IsZero() {
		company.LastSeenAt = time.Now()
	}

	if err := s.db.Store().Upsert(company.Key(), company); err != nil {
		return fmt.Errorf("failed to upsert company: %w", err)
	}
	return nil
}

func (s *CompanyStorage) GetCompany(ctx context.Context, tenantID, companyKey string) (*models.Company, error) {
	var company models.Company
	if err := s.db.Store().Get(models.CompanyKey(tenantID, companyKey), &company); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

func (s *CompanyStorage) DeleteCompaniesNotSeenSince(ctx context.Context, tenantID string, cutoff time.Time, limit int) (int, error) {
	var companies []models.Company
	query := badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID").
		And("LastSeenAt").Lt(cutoff).Limit(limit)
	if err := s.db.Store().Find(&companies, query); err != nil {
		return 0, fmt.Errorf("failed to query stale companies: %w", err)
	}

	deleted := 0
	for i := range companies {
		if err := s.db.Store().Delete(companies[i].Key(), &models.Company{}); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return deleted, fmt.Errorf("failed to delete company %s: %w", companies[i].CompanyKey, err)
		}
		deleted++
	}
	return deleted, nil
}
