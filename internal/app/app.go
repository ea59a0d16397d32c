package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/handlers"
	"github.com/ternarybob/venari/internal/ingest"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/queue"
	"github.com/ternarybob/venari/internal/scheduler"
	"github.com/ternarybob/venari/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	// Dispatch queue
	QueueManager *queue.Manager
	WorkerPool   *queue.WorkerPool

	// Ingestion
	Fetcher   *ingest.Fetcher
	Worker    *ingest.Worker
	Collector *ingest.Collector

	// Scheduling
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	FeedHandler   *handlers.FeedHandler
	PollHandler   *handlers.PollHandler
	RunHandler    *handlers.RunHandler
	StatusHandler *handlers.StatusHandler
}

// New wires the full application: storage, dispatch queue, ingestion
// services, scheduler, and HTTP handlers.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(&config.Storage.Badger, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = storageManager

	db := storageManager.(*badger.Manager).DB()
	queueManager, err := queue.NewManager(db.Store().Badger(), config.Queue.QueueName, config.Queue.VisibilityTimeout, config.Queue.MaxReceive, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}
	a.QueueManager = queueManager

	a.Fetcher = ingest.NewFetcher(config.Ingest.FetchTimeout, config.Ingest.FetchRateLimit, logger)
	a.Worker = ingest.NewWorker(&config.Ingest, storageManager, a.Fetcher, logger)
	a.Collector = ingest.NewCollector(&config.Retention, storageManager, logger)

	schedulerService, err := scheduler.NewService(&config.Scheduler, storageManager, queueManager, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	a.SchedulerService = schedulerService

	a.WorkerPool = queue.NewWorkerPool(queueManager, config.Queue.Concurrency, config.Queue.PollInterval, logger)
	a.WorkerPool.RegisterHandler(models.RunTypeScheduled, a.Worker.Execute)
	a.WorkerPool.RegisterHandler(models.RunTypeManual, a.Worker.Execute)
	a.WorkerPool.RegisterHandler(models.RunTypeGC, a.Collector.Execute)

	a.FeedHandler = handlers.NewFeedHandler(storageManager, logger)
	a.PollHandler = handlers.NewPollHandler(storageManager, schedulerService, a.Worker, logger)
	a.RunHandler = handlers.NewRunHandler(storageManager, logger)
	a.StatusHandler = handlers.NewStatusHandler(config, storageManager, schedulerService, queueManager, logger)

	return a, nil
}

// Start launches the background services: the dispatch worker pool and,
// when enabled, the cron scheduler.
func (a *App) Start() error {
	if err := a.WorkerPool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	if a.Config.Scheduler.Enabled {
		if err := a.SchedulerService.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		a.Logger.Info().Msg("Scheduler disabled by configuration")
	}

	return nil
}

// Shutdown stops background services and closes storage.
func (a *App) Shutdown(ctx context.Context) error {
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler stop failed")
		}
	}
	if a.WorkerPool != nil {
		if err := a.WorkerPool.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Worker pool stop failed")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
