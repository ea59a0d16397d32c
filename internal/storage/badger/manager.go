package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

// Manager aggregates the per-collection storages over one Badger database.
type Manager struct {
	db        *BadgerDB
	tenants   interfaces.TenantStorage
	feeds     interfaces.FeedStorage
	companies interfaces.CompanyStorage
	jobs      interfaces.JobStorage
	runs      interfaces.RunStorage
	logger    arbor.ILogger
}

// NewManager opens the database and wires all collection storages.
func NewManager(config *common.BadgerConfig, logger arbor.ILogger) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return &Manager{
		db:        db,
		tenants:   NewTenantStorage(db, logger),
		feeds:     NewFeedStorage(db, logger),
		companies: NewCompanyStorage(db, logger),
		jobs:      NewJobStorage(db, logger),
		runs:      NewRunStorage(db, logger),
		logger:    logger,
	}, nil
}

func (m *Manager) Tenants() interfaces.TenantStorage    { return m.tenants }
func (m *Manager) Feeds() interfaces.FeedStorage        { return m.feeds }
func (m *Manager) Companies() interfaces.CompanyStorage { return m.companies }
func (m *Manager) Jobs() interfaces.JobStorage          { return m.jobs }
func (m *Manager) Runs() interfaces.RunStorage          { return m.runs }

// DB exposes the underlying connection for components that share the
// database, such as the dispatch queue.
func (m *Manager) DB() *BadgerDB { return m.db }

func (m *Manager) Close() error {
	m.logger.Debug().Msg("Closing storage")
	return m.db.Close()
}
