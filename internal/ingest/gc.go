package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// Collector executes garbage-collection runs: bounded delete passes over
// stale jobs, old run records, and companies no feed has touched recently.
// Every pass is limited by batch size and loop cap so one tenant with a
// large backlog cannot monopolize the store.
type Collector struct {
	config  *common.RetentionConfig
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewCollector creates a garbage collector.
func NewCollector(config *common.RetentionConfig, storage interfaces.StorageManager, logger arbor.ILogger) *Collector {
	return &Collector{
		config:  config,
		storage: storage,
		logger:  logger,
	}
}

// Execute runs one GC message for one tenant. Like ingestion runs, the
// outcome lands on the run ledger and redeliveries of terminal runs no-op.
func (c *Collector) Execute(ctx context.Context, msg models.RunMessage) error {
	log := c.logger.WithCorrelationId(msg.RunID)

	run, err := c.storage.Runs().GetRun(ctx, msg.TenantID, msg.RunID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn().Msg("GC message references missing ledger entry, dropping")
			return nil
		}
		return fmt.Errorf("failed to load run: %w", err)
	}
	if run.Status.Terminal() {
		return nil
	}

	if _, err := c.storage.Runs().MarkRunning(ctx, msg.TenantID, msg.RunID, 0); err != nil {
		if errors.Is(err, models.ErrRunTerminal) {
			return nil
		}
		return fmt.Errorf("failed to mark run running: %w", err)
	}

	started := time.Now()
	now := time.Now()
	samples := &sampleRing{}
	gcErrors := 0

	jobsDeleted, err := c.sweep(ctx, "jobs", func(ctx context.Context, limit int) (int, error) {
		cutoff := now.AddDate(0, 0, -c.config.JobDays)
		return c.storage.Jobs().DeleteJobsUpdatedBefore(ctx, msg.TenantID, cutoff, limit)
	})
	if err != nil {
		gcErrors++
		samples.Add("", fmt.Sprintf("job sweep: %v", err))
	}

	runsDeleted, err := c.sweep(ctx, "runs", func(ctx context.Context, limit int) (int, error) {
		cutoff := now.AddDate(0, 0, -c.config.RunDays)
		return c.storage.Runs().DeleteRunsCreatedBefore(ctx, msg.TenantID, cutoff, limit)
	})
	if err != nil {
		gcErrors++
		samples.Add("", fmt.Sprintf("run sweep: %v", err))
	}

	companiesDeleted, err := c.sweep(ctx, "companies", func(ctx context.Context, limit int) (int, error) {
		cutoff := now.AddDate(0, 0, -c.config.CompanyDays)
		return c.storage.Companies().DeleteCompaniesNotSeenSince(ctx, msg.TenantID, cutoff, limit)
	})
	if err != nil {
		gcErrors++
		samples.Add("", fmt.Sprintf("company sweep: %v", err))
	}

	final := interfaces.RunFinal{
		Counters:     models.RunCounters{Errors: gcErrors},
		ErrorSamples: samples.Samples(),
		DurationMs:   time.Since(started).Milliseconds(),
	}
	status := models.RunStatusDone
	if gcErrors > 0 {
		status = models.RunStatusDoneErrors
	}

	if err := c.storage.Runs().FinishRun(ctx, msg.TenantID, msg.RunID, status, final); err != nil {
		if errors.Is(err, models.ErrRunTerminal) {
			return nil
		}
		return fmt.Errorf("failed to finish run: %w", err)
	}

	log.Info().
		Str("tenant_id", msg.TenantID).
		Int("jobs_deleted", jobsDeleted).
		Int("runs_deleted", runsDeleted).
		Int("companies_deleted", companiesDeleted).
		Int64("duration_ms", final.DurationMs).
		Msg("Garbage collection finished")
	return nil
}

// sweep repeats one bounded delete pass until a short batch, the loop cap,
// or context cancellation stops it.
func (c *Collector) sweep(ctx context.Context, name string, deleteBatch func(ctx context.Context, limit int) (int, error)) (int, error) {
	total := 0
	for loop := 0; loop < c.config.GCLoopCap; loop++ {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		deleted, err := deleteBatch(ctx, c.config.GCBatchLimit)
		total += deleted
		if err != nil {
			return total, err
		}
		if deleted < c.config.GCBatchLimit {
			break
		}
	}
	c.logger.Debug().Str("collection", name).Int("deleted", total).Msg("GC sweep complete")
	return total, nil
}
