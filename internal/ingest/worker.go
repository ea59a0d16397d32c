package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/adapters"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/filter"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/normalize"
	"github.com/ternarybob/venari/internal/storage/badger"
)

// Worker executes one ingestion run per dequeued message: fetch every
// ingestible feed, filter postings through the recency and location gates,
// normalize survivors, and upsert them. Counters and errors land on the run
// ledger; redelivered messages for terminal runs are no-ops.
type Worker struct {
	config  *common.IngestConfig
	storage interfaces.StorageManager
	fetcher *Fetcher
	policy  *filter.Policy
	logger  arbor.ILogger
}

// NewWorker creates an ingestion worker.
func NewWorker(config *common.IngestConfig, storage interfaces.StorageManager, fetcher *Fetcher, logger arbor.ILogger) *Worker {
	return &Worker{
		config:  config,
		storage: storage,
		fetcher: fetcher,
		policy:  filter.Default(),
		logger:  logger,
	}
}

// Execute runs one ingestion message end to end. The returned error signals
// infrastructure failure only (message should be redelivered); domain
// failures land on the run ledger and return nil.
func (w *Worker) Execute(ctx context.Context, msg models.RunMessage) error {
	log := w.logger.WithCorrelationId(msg.RunID)

	run, err := w.storage.Runs().GetRun(ctx, msg.TenantID, msg.RunID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn().Msg("Run message references missing ledger entry, dropping")
			return nil
		}
		return fmt.Errorf("failed to load run: %w", err)
	}
	if run.Status.Terminal() {
		// Redelivery after a completed run. Acknowledge silently.
		log.Debug().Str("status", string(run.Status)).Msg("Run already terminal, ignoring redelivery")
		return nil
	}

	if w.config.RunLockEnabled {
		lease := 3 * w.config.HeartbeatInterval
		active, err := w.storage.Runs().HasActiveRun(ctx, msg.TenantID, msg.RunID, lease)
		if err != nil {
			return fmt.Errorf("failed to check run lock: %w", err)
		}
		if active {
			log.Info().Msg("Another run is active for tenant, skipping")
			err := w.storage.Runs().FinishRun(ctx, msg.TenantID, msg.RunID, models.RunStatusSkippedLock, interfaces.RunFinal{
				SkipReason: "another run is active for this tenant",
			})
			if err != nil && !errors.Is(err, models.ErrRunTerminal) {
				return err
			}
			return nil
		}
	}

	feeds, err := w.storage.Feeds().ListIngestibleFeeds(ctx, msg.TenantID)
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}

	if _, err := w.storage.Runs().MarkRunning(ctx, msg.TenantID, msg.RunID, len(feeds)); err != nil {
		if errors.Is(err, models.ErrRunTerminal) {
			return nil
		}
		return fmt.Errorf("failed to mark run running: %w", err)
	}

	started := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, w.config.RunTimeout)
	defer cancel()

	counters := &runCounters{}
	samples := &sampleRing{}
	writer := badger.NewBulkWriter(w.config.WriteConcurrency, w.logger)
	upserter := NewUpserter(w.storage.Jobs(), writer, counters, samples, w.config.ResetSavedOnIngest, w.logger)

	stopHeartbeat := w.startHeartbeat(runCtx, msg, counters)

	w.processFeeds(runCtx, msg.TenantID, feeds, upserter, counters, samples, log)

	// Writer close is the completion barrier: every counter is settled
	// before the terminal status is written.
	writer.Close()
	stopHeartbeat()

	final := interfaces.RunFinal{
		Counters:     counters.Snapshot(),
		ErrorSamples: samples.Samples(),
		DurationMs:   time.Since(started).Milliseconds(),
	}

	status := models.RunStatusDone
	if final.Counters.Errors > 0 {
		status = models.RunStatusDoneErrors
	}
	if runCtx.Err() != nil && ctx.Err() == nil {
		status = models.RunStatusFailed
		final.Error = "run deadline exceeded"
	}

	if err := w.storage.Runs().FinishRun(ctx, msg.TenantID, msg.RunID, status, final); err != nil {
		if errors.Is(err, models.ErrRunTerminal) {
			return nil
		}
		return fmt.Errorf("failed to finish run: %w", err)
	}

	log.Info().
		Str("status", string(status)).
		Int("feeds", final.Counters.FeedsCount).
		Int("found", final.Counters.Found).
		Int("added", final.Counters.Added).
		Int("updated", final.Counters.Updated).
		Int("errors", final.Counters.Errors).
		Int64("duration_ms", final.DurationMs).
		Msg("Ingestion run finished")
	return nil
}

// startHeartbeat merges in-progress counters onto the ledger on a fixed
// cadence. The returned stop function blocks until the loop exits.
func (w *Worker) startHeartbeat(ctx context.Context, msg models.RunMessage, counters *runCounters) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})

	common.SafeGo(w.logger, "run-heartbeat", func() {
		defer close(stopped)
		ticker := time.NewTicker(w.config.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.storage.Runs().Heartbeat(ctx, msg.TenantID, msg.RunID, counters.Snapshot()); err != nil {
					w.logger.Debug().Err(err).Str("run_id", msg.RunID).Msg("Heartbeat write failed")
				}
			}
		}
	})

	return func() {
		close(done)
		<-stopped
	}
}

// processFeeds fetches and ingests every feed with bounded concurrency.
func (w *Worker) processFeeds(ctx context.Context, tenantID string, feeds []*models.Feed, upserter *Upserter, counters *runCounters, samples *sampleRing, log arbor.ILogger) {
	sem := make(chan struct{}, w.config.FeedConcurrency)
	var wg sync.WaitGroup

	for _, feed := range feeds {
		if ctx.Err() != nil {
			break
		}
		feed := feed
		wg.Add(1)
		sem <- struct{}{}

		common.SafeGo(w.logger, "feed-"+feed.FeedID, func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			if err := w.processFeed(ctx, tenantID, feed, upserter, counters); err != nil {
				counters.errors.Add(1)
				samples.Add(feed.URL, err.Error())
				if serr := w.storage.Feeds().SetFeedError(ctx, tenantID, feed.FeedID, err.Error()); serr != nil {
					log.Debug().Err(serr).Str("feed_id", feed.FeedID).Msg("Failed to record feed error")
				}
				log.Warn().Err(err).Str("feed_id", feed.FeedID).Str("url", feed.URL).Msg("Feed ingestion failed")
			} else if feed.LastError != "" {
				if serr := w.storage.Feeds().SetFeedError(ctx, tenantID, feed.FeedID, ""); serr != nil {
					log.Debug().Err(serr).Str("feed_id", feed.FeedID).Msg("Failed to clear feed error")
				}
			}
		})
	}

	wg.Wait()
}

// processFeed ingests one feed: fetch, extract, filter, normalize, upsert,
// and refresh the owning company record.
func (w *Worker) processFeed(ctx context.Context, tenantID string, feed *models.Feed, upserter *Upserter, counters *runCounters) error {
	source := adapters.ResolveSource(feed.Source, feed.URL)
	if !source.Valid() {
		return fmt.Errorf("cannot determine source for feed URL %s", feed.URL)
	}

	payload, err := w.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		return err
	}

	postings, err := adapters.ExtractPostings(source, payload)
	if err != nil {
		return fmt.Errorf("failed to parse feed payload: %w", err)
	}

	companyKey := adapters.CompanyKey(source, feed.URL, feed.FeedID)
	now := time.Now()
	window := w.config.Window()

	companyName := feed.Company
	candidates := make([]*models.JobPosting, 0, len(postings))

	for i := range postings {
		posting := postings[i]
		if companyName == "" && posting.CompanyName != "" {
			companyName = posting.CompanyName
		}

		rec := filter.EvaluateRecency(posting, now, window)
		switch rec.Reason {
		case filter.ReasonNoTimestamp:
			counters.noTimestamp.Add(1)
			counters.found.Add(1)
			continue
		case filter.ReasonTooOld:
			counters.skippedOld.Add(1)
			counters.found.Add(1)
			continue
		}

		loc := filter.EvaluateLocation(posting, w.policy)
		if !loc.Keep {
			continue
		}

		counters.candidates.Add(1)
		counters.found.Add(1)

		candidates = append(candidates, w.buildJob(tenantID, companyKey, source, posting, rec, loc))
	}

	if err := upserter.UpsertBatch(ctx, tenantID, candidates); err != nil {
		return err
	}

	company := &models.Company{
		TenantID:    tenantID,
		CompanyKey:  companyKey,
		CompanyName: companyName,
		URL:         feed.URL,
		Source:      source,
		LastSeenAt:  now,
	}
	if err := w.storage.Companies().UpsertCompany(ctx, company); err != nil {
		return fmt.Errorf("failed to upsert company: %w", err)
	}

	return nil
}

// buildJob maps a filtered posting into its stored document shape.
func (w *Worker) buildJob(tenantID, companyKey string, source models.Source, posting adapters.UniformPosting, rec filter.RecencyResult, loc filter.LocationResult) *models.JobPosting {
	metadata, kv := normalize.NormalizeMetadata(posting.Metadata)

	return &models.JobPosting{
		TenantID:      tenantID,
		CompanyKey:    companyKey,
		UpstreamJobID: posting.ID,
		Title:         posting.Title,
		CanonicalURL:  posting.AbsoluteURL,
		ApplyURL:      posting.ApplyURL,
		LocationText:  posting.LocationName,
		StateCodes:    loc.StateCodes,
		Remote:        posting.IsRemote,
		Source:        source,

		Metadata:   metadata,
		MetadataKV: kv,
		Content:    normalize.CleanHTML(posting.Content, w.config.ContentMaxChars),

		SourceUpdatedIso: rec.EffectiveIso,
		SourceUpdatedTs:  rec.Effective,
		SourceUpdatedMs:  rec.EffectiveMs,
	}
}
