package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// tickTimeout bounds one scheduler tick across all tenants.
const tickTimeout = 2 * time.Minute

// Service drives periodic ingestion and GC runs. Each cron tick enumerates
// tenants and enqueues one run per tenant through the durable dispatch
// queue; a tenant whose enqueue fails gets an enqueue_failed ledger entry
// and never blocks the others.
type Service struct {
	config     *common.SchedulerConfig
	storage    interfaces.StorageManager
	dispatcher interfaces.Dispatcher
	cron       *cron.Cron
	logger     arbor.ILogger
	mu         sync.Mutex
	running    bool
}

// NewService creates a scheduler service bound to the configured timezone.
func NewService(config *common.SchedulerConfig, storage interfaces.StorageManager, dispatcher interfaces.Dispatcher, logger arbor.ILogger) (interfaces.SchedulerService, error) {
	location, err := config.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scheduler timezone: %w", err)
	}

	return &Service{
		config:     config,
		storage:    storage,
		dispatcher: dispatcher,
		cron:       cron.New(cron.WithLocation(location)),
		logger:     logger,
	}, nil
}

// Start registers the poll and GC schedules and starts the cron loop.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.config.PollSchedule, func() {
		s.tick(models.RunTypeScheduled)
	}); err != nil {
		return fmt.Errorf("failed to register poll schedule: %w", err)
	}

	if _, err := s.cron.AddFunc(s.config.GCSchedule, func() {
		s.tick(models.RunTypeGC)
	}); err != nil {
		return fmt.Errorf("failed to register gc schedule: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("poll_schedule", s.config.PollSchedule).
		Str("gc_schedule", s.config.GCSchedule).
		Str("timezone", s.config.Timezone).
		Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop. Ticks already in flight finish on their own.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning reports whether the cron loop is active.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// tick enqueues one run of the given type for every known tenant, with
// bounded fan-out.
func (s *Service) tick(runType models.RunType) {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	tenantIDs, err := s.storage.Tenants().ListTenantIDs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduler tick failed to list tenants")
		return
	}
	if len(tenantIDs) == 0 {
		return
	}

	s.logger.Info().
		Str("run_type", string(runType)).
		Int("tenants", len(tenantIDs)).
		Msg("Scheduler tick")

	sem := make(chan struct{}, s.config.EnqueueConcurrency)
	var wg sync.WaitGroup

	for _, tenantID := range tenantIDs {
		tenantID := tenantID
		wg.Add(1)
		sem <- struct{}{}

		common.SafeGo(s.logger, "enqueue-"+tenantID, func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			if _, err := s.TriggerRun(ctx, tenantID, runType); err != nil {
				s.logger.Warn().
					Err(err).
					Str("tenant_id", tenantID).
					Str("run_type", string(runType)).
					Msg("Failed to trigger run for tenant")
			}
		})
	}

	wg.Wait()
}

// TriggerRun creates a ledger entry and enqueues one run for the tenant.
// The ledger entry is written first so a crash between the two steps leaves
// an inert enqueued record rather than an untracked message; an enqueue
// failure is recorded as terminal enqueue_failed.
func (s *Service) TriggerRun(ctx context.Context, tenantID string, runType models.RunType) (string, error) {
	runID := common.NewRunID()
	now := time.Now()

	run := &models.FetchRun{
		RunID:      runID,
		TenantID:   tenantID,
		Type:       runType,
		Status:     models.RunStatusEnqueued,
		CreatedAt:  now,
		EnqueuedAt: &now,
	}
	if err := s.storage.Runs().CreateRun(ctx, run); err != nil {
		return "", fmt.Errorf("failed to create run record: %w", err)
	}

	msg := models.RunMessage{
		TenantID: tenantID,
		RunType:  runType,
		RunID:    runID,
	}
	if err := s.dispatcher.Enqueue(ctx, msg); err != nil {
		finErr := s.storage.Runs().FinishRun(ctx, tenantID, runID, models.RunStatusEnqueueFailed, interfaces.RunFinal{
			Error: fmt.Sprintf("enqueue failed: %v", err),
		})
		if finErr != nil {
			s.logger.Error().
				Err(finErr).
				Str("run_id", runID).
				Msg("Failed to record enqueue failure on run ledger")
		}
		return runID, fmt.Errorf("failed to enqueue run: %w", err)
	}

	s.logger.Debug().
		Str("run_id", runID).
		Str("tenant_id", tenantID).
		Str("run_type", string(runType)).
		Msg("Run enqueued")
	return runID, nil
}
