package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/queue"
)

// StatusHandler reports service state for operators.
type StatusHandler struct {
	config    *common.Config
	storage   interfaces.StorageManager
	scheduler interfaces.SchedulerService
	queue     *queue.Manager
	startedAt time.Time
	logger    arbor.ILogger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(config *common.Config, storage interfaces.StorageManager, scheduler interfaces.SchedulerService, queueMgr *queue.Manager, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		config:    config,
		storage:   storage,
		scheduler: scheduler,
		queue:     queueMgr,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// GetStatusHandler returns service status: version, scheduler state, queue
// depth, and per-tenant document counts when a tenant is given.
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status := map[string]interface{}{
		"service":     "venari",
		"version":     common.GetVersion(),
		"environment": h.config.Environment,
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
		"scheduler": map[string]interface{}{
			"running":       h.scheduler.IsRunning(),
			"poll_schedule": h.config.Scheduler.PollSchedule,
			"gc_schedule":   h.config.Scheduler.GCSchedule,
			"timezone":      h.config.Scheduler.Timezone,
		},
	}

	if depth, err := h.queue.Depth(r.Context()); err == nil {
		status["queue_depth"] = depth
	} else {
		h.logger.Debug().Err(err).Msg("Failed to read queue depth")
	}

	if tenantID := TenantID(r); tenantID != "" {
		tenant := map[string]interface{}{"tenant_id": tenantID}
		if count, err := h.storage.Jobs().CountJobs(r.Context(), tenantID); err == nil {
			tenant["job_count"] = count
		}
		if feeds, err := h.storage.Feeds().ListFeeds(r.Context(), tenantID); err == nil {
			tenant["feed_count"] = len(feeds)
		}
		status["tenant"] = tenant
	}

	WriteJSON(w, http.StatusOK, status)
}

// HealthHandler is the liveness probe.
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": common.GetVersion(),
	})
}

// VersionHandler reports build information.
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetFullVersion(),
	})
}
