package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/ingest"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/storage/badger"
)

// Poll command exit codes.
const (
	exitOK       = 0 // run finished clean
	exitBadInput = 2 // missing or invalid command arguments
	exitUpstream = 3 // upstream feed failures, partial or total
	exitStorage  = 4 // storage or execution infrastructure failure
)

// runPoll executes one synchronous ingestion run for a tenant and prints the
// finished ledger entry as JSON. The dispatch queue and scheduler are never
// started.
func runPoll(tenantID string) int {
	if tenantID == "" {
		fmt.Fprintln(os.Stderr, "poll requires -tenant")
		return exitBadInput
	}

	storage, err := badger.NewManager(&config.Storage.Badger, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open storage")
		return exitStorage
	}
	defer storage.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.Ingest.RunTimeout)
	defer cancel()

	runID := common.NewRunID()
	run := &models.FetchRun{
		RunID:    runID,
		TenantID: tenantID,
		Type:     models.RunTypeManual,
		Status:   models.RunStatusEnqueued,
	}
	if err := storage.Runs().CreateRun(ctx, run); err != nil {
		logger.Error().Err(err).Msg("Failed to create run record")
		return exitStorage
	}

	fetcher := ingest.NewFetcher(config.Ingest.FetchTimeout, config.Ingest.FetchRateLimit, logger)
	worker := ingest.NewWorker(&config.Ingest, storage, fetcher, logger)

	msg := models.RunMessage{
		TenantID: tenantID,
		RunType:  models.RunTypeManual,
		RunID:    runID,
	}
	if err := worker.Execute(ctx, msg); err != nil {
		logger.Error().Err(err).Str("run_id", runID).Msg("Run execution failed")
		return exitStorage
	}

	finished, err := storage.Runs().GetRun(ctx, tenantID, runID)
	if err != nil {
		logger.Error().Err(err).Str("run_id", runID).Msg("Failed to load run result")
		return exitStorage
	}

	out, err := json.MarshalIndent(finished, "", "  ")
	if err != nil {
		return exitStorage
	}
	fmt.Println(string(out))

	return pollExitCode(finished.Status)
}

// pollExitCode maps a terminal run status onto the CLI exit-code contract:
// a clean run exits 0, any upstream feed failure (partial or total) exits 3,
// and anything else is an infrastructure outcome.
func pollExitCode(status models.RunStatus) int {
	switch status {
	case models.RunStatusDone:
		return exitOK
	case models.RunStatusDoneErrors, models.RunStatusFailed:
		return exitUpstream
	default:
		return exitStorage
	}
}
