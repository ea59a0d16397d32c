package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// RunHandler exposes the run ledger.
type RunHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewRunHandler creates a new run handler.
func NewRunHandler(storage interfaces.StorageManager, logger arbor.ILogger) *RunHandler {
	return &RunHandler{storage: storage, logger: logger}
}

// ListRunsHandler returns recent runs for a tenant, newest first.
func (h *RunHandler) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tenantID := TenantID(r)
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	limit := QueryInt(r, "limit", 20)
	if limit > 200 {
		limit = 200
	}

	runs, err := h.storage.Runs().RecentRuns(r.Context(), tenantID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		WriteError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tenant_id": tenantID,
		"runs":      runs,
		"count":     len(runs),
	})
}

// RunRoutes routes /api/runs/{id}.
func (h *RunHandler) RunRoutes(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		WriteError(w, http.StatusBadRequest, "run id is required")
		return
	}

	tenantID := TenantID(r)
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	run, err := h.storage.Runs().GetRun(r.Context(), tenantID, runID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to get run")
		WriteError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	WriteJSON(w, http.StatusOK, run)
}
