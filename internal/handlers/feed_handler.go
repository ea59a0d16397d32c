package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/adapters"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// FeedHandler manages per-tenant feed subscriptions.
type FeedHandler struct {
	storage  interfaces.StorageManager
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(storage interfaces.StorageManager, logger arbor.ILogger) *FeedHandler {
	return &FeedHandler{
		storage:  storage,
		validate: validator.New(),
		logger:   logger,
	}
}

// feedRequest is the create/update payload for a feed subscription.
type feedRequest struct {
	Company string `json:"company" validate:"max=200"`
	URL     string `json:"url" validate:"required,url"`
	Active  *bool  `json:"active"`
	Source  string `json:"source" validate:"omitempty,oneof=greenhouse ashby"`
}

// FeedsHandler routes /api/feeds: GET lists feeds, POST creates one.
func (h *FeedHandler) FeedsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listFeeds(w, r)
	case http.MethodPost:
		h.createFeed(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// FeedRoutes routes /api/feeds/{id} and its archive/restore subpaths.
func (h *FeedHandler) FeedRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/feeds/")
	parts := strings.SplitN(rest, "/", 2)
	feedID := parts[0]
	if feedID == "" {
		WriteError(w, http.StatusBadRequest, "feed id is required")
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "archive":
			if !RequireMethod(w, r, http.MethodPost) {
				return
			}
			h.archiveFeed(w, r, feedID)
		case "restore":
			if !RequireMethod(w, r, http.MethodPost) {
				return
			}
			h.restoreFeed(w, r, feedID)
		default:
			WriteError(w, http.StatusNotFound, "unknown feed operation")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getFeed(w, r, feedID)
	case http.MethodPut:
		h.updateFeed(w, r, feedID)
	case http.MethodDelete:
		h.archiveFeed(w, r, feedID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *FeedHandler) listFeeds(w http.ResponseWriter, r *http.Request) {
	tenantID := TenantID(r)
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	feeds, err := h.storage.Feeds().ListFeeds(r.Context(), tenantID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list feeds")
		WriteError(w, http.StatusInternalServerError, "failed to list feeds")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tenant_id": tenantID,
		"feeds":     feeds,
		"count":     len(feeds),
	})
}

func (h *FeedHandler) createFeed(w http.ResponseWriter, r *http.Request) {
	tenantID := TenantID(r)
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	var req feedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	source := adapters.ResolveSource(models.Source(req.Source), req.URL)
	if !source.Valid() {
		WriteError(w, http.StatusBadRequest, "url does not match a supported job board")
		return
	}

	if err := h.storage.Tenants().EnsureTenant(r.Context(), tenantID); err != nil {
		h.logger.Error().Err(err).Msg("Failed to ensure tenant")
		WriteError(w, http.StatusInternalServerError, "failed to save feed")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	feed := &models.Feed{
		TenantID: tenantID,
		FeedID:   common.NewFeedID(),
		Company:  req.Company,
		URL:      req.URL,
		Active:   active,
		Source:   source,
	}
	if err := h.storage.Feeds().SaveFeed(r.Context(), feed); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save feed")
		WriteError(w, http.StatusInternalServerError, "failed to save feed")
		return
	}

	h.logger.Info().
		Str("tenant_id", tenantID).
		Str("feed_id", feed.FeedID).
		Str("url", feed.URL).
		Msg("Feed created")
	WriteJSON(w, http.StatusCreated, feed)
}

func (h *FeedHandler) getFeed(w http.ResponseWriter, r *http.Request, feedID string) {
	tenantID := TenantID(r)
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	feed, err := h.storage.Feeds().GetFeed(r.Context(), tenantID, feedID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "feed not found")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to get feed")
		WriteError(w, http.StatusInternalServerError, "failed to get feed")
		return
	}
	WriteJSON(w, http.StatusOK, feed)
}

func (h *FeedHandler) updateFeed(w http.ResponseWriter, r *http.Request, feedID string) {
	tenantID := TenantID(r)
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	feed, err := h.storage.Feeds().GetFeed(r.Context(), tenantID, feedID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "feed not found")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to get feed")
		WriteError(w, http.StatusInternalServerError, "failed to update feed")
		return
	}

	var req feedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	source := adapters.ResolveSource(models.Source(req.Source), req.URL)
	if !source.Valid() {
		WriteError(w, http.StatusBadRequest, "url does not match a supported job board")
		return
	}

	feed.Company = req.Company
	feed.URL = req.URL
	feed.Source = source
	if req.Active != nil {
		feed.Active = *req.Active
	}

	if err := h.storage.Feeds().SaveFeed(r.Context(), feed); err != nil {
		h.logger.Error().Err(err).Msg("Failed to update feed")
		WriteError(w, http.StatusInternalServerError, "failed to update feed")
		return
	}
	WriteJSON(w, http.StatusOK, feed)
}

func (h *FeedHandler) archiveFeed(w http.ResponseWriter, r *http.Request, feedID string) {
	tenantID := TenantID(r)
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	if err := h.storage.Feeds().ArchiveFeed(r.Context(), tenantID, feedID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "feed not found")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to archive feed")
		WriteError(w, http.StatusInternalServerError, "failed to archive feed")
		return
	}
	WriteSuccess(w, "feed archived")
}

func (h *FeedHandler) restoreFeed(w http.ResponseWriter, r *http.Request, feedID string) {
	tenantID := TenantID(r)
	if tenantID == "" {
		WriteError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	if err := h.storage.Feeds().RestoreFeed(r.Context(), tenantID, feedID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "feed not found")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to restore feed")
		WriteError(w, http.StatusInternalServerError, "failed to restore feed")
		return
	}
	WriteSuccess(w, "feed restored")
}
