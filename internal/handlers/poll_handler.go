package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/ingest"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// PollHandler triggers ingestion runs: asynchronously through the dispatch
// queue, or synchronously for the internal diagnostics endpoint.
type PollHandler struct {
	storage   interfaces.StorageManager
	scheduler interfaces.SchedulerService
	worker    *ingest.Worker
	logger    arbor.ILogger
}

// NewPollHandler creates a new poll handler.
func NewPollHandler(storage interfaces.StorageManager, scheduler interfaces.SchedulerService, worker *ingest.Worker, logger arbor.ILogger) *PollHandler {
	return &PollHandler{
		storage:   storage,
		scheduler: scheduler,
		worker:    worker,
		logger:    logger,
	}
}

// pollRequest is the body for POST /api/poll.
type pollRequest struct {
	TenantID string `json:"tenant_id"`
}

// PollNowHandler enqueues one manual ingestion run for a tenant and returns
// immediately with the run ID.
func (h *PollHandler) PollNowHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	tenantID := TenantID(r)
	if tenantID == "" {
		var req pollRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			tenantID = req.TenantID
		}
	}
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	runID, err := h.scheduler.TriggerRun(r.Context(), tenantID, models.RunTypeManual)
	if err != nil {
		h.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to trigger manual run")
		WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  "failed to enqueue run",
			"run_id": runID,
		})
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status": "enqueued",
		"run_id": runID,
	})
}

// RunSyncHandler executes one ingestion run inline and returns the finished
// ledger entry. Diagnostics only; the dispatch queue is bypassed entirely.
func (h *PollHandler) RunSyncHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tenantID := TenantID(r)
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	runID := common.NewRunID()
	run := &models.FetchRun{
		RunID:    runID,
		TenantID: tenantID,
		Type:     models.RunTypeManual,
		Status:   models.RunStatusEnqueued,
	}
	if err := h.storage.Runs().CreateRun(r.Context(), run); err != nil {
		h.logger.Error().Err(err).Msg("Failed to create synchronous run")
		WriteError(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	msg := models.RunMessage{
		TenantID: tenantID,
		RunType:  models.RunTypeManual,
		RunID:    runID,
	}
	if err := h.worker.Execute(r.Context(), msg); err != nil {
		h.logger.Error().Err(err).Str("run_id", runID).Msg("Synchronous run failed")
		WriteError(w, http.StatusInternalServerError, "run failed: "+err.Error())
		return
	}

	finished, err := h.storage.Runs().GetRun(r.Context(), tenantID, runID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusInternalServerError, "run record vanished")
			return
		}
		WriteError(w, http.StatusInternalServerError, "failed to load run result")
		return
	}

	WriteJSON(w, http.StatusOK, finished)
}
