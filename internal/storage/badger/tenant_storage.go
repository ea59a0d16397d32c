package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// TenantStorage implements the TenantStorage interface for Badger
type TenantStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTenantStorage creates a new TenantStorage instance
func NewTenantStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TenantStorage {
	return &TenantStorage{db: db, logger: logger}
}

func (s *TenantStorage) EnsureTenant(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant ID is required")
	}

	var existing models.Tenant
	err := s.db.Store().Get(models.TenantKey(tenantID), &existing)
	if err == nil {
		return nil
	}
	if err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to check tenant: %w", err)
	}

	tenant := models.Tenant{
		TenantID:  tenantID,
		CreatedAt: time.Now(),
	}
	if err := s.db.Store().Upsert(models.TenantKey(tenantID), &tenant); err != nil {
		return fmt.Errorf("failed to save tenant: %w", err)
	}
	return nil
}

func (s *TenantStorage) ListTenantIDs(ctx context.Context) ([]string, error) {
	var tenants []models.Tenant
	if err := s.db.Store().Find(&tenants, nil); err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	ids := make([]string, 0, len(tenants))
	for _, t := range tenants {
		ids = append(ids, t.TenantID)
	}
	sort.Strings(ids)
	return ids, nil
}
