package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Feed subscriptions
	mux.HandleFunc("/api/feeds", s.app.FeedHandler.FeedsHandler)  // GET (list), POST (create)
	mux.HandleFunc("/api/feeds/", s.app.FeedHandler.FeedRoutes)   // GET/PUT/DELETE /{id}, POST /{id}/archive|restore

	// Ingestion runs
	mux.HandleFunc("/api/poll", s.app.PollHandler.PollNowHandler) // POST - enqueue a manual run
	mux.HandleFunc("/api/runs", s.app.RunHandler.ListRunsHandler) // GET - recent runs
	mux.HandleFunc("/api/runs/", s.app.RunHandler.RunRoutes)      // GET /{id}

	// Internal diagnostics: run one ingestion synchronously
	mux.HandleFunc("/internal/run-sync", s.app.PollHandler.RunSyncHandler)

	// System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)
	mux.HandleFunc("/health", s.app.StatusHandler.HealthHandler)

	return mux
}
