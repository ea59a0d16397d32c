package ingest

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/venari/internal/models"
)

// runCounters accumulates per-run counts across concurrent feed workers.
// Snapshot is safe to call from the heartbeat while feeds are in flight.
type runCounters struct {
	found            atomic.Int64
	candidates       atomic.Int64
	added            atomic.Int64
	updated          atomic.Int64
	skippedOld       atomic.Int64
	skippedUnchanged atomic.Int64
	noTimestamp      atomic.Int64
	errors           atomic.Int64
}

// Snapshot copies the current counts into the ledger shape. Writes is
// derived: added + updated.
func (c *runCounters) Snapshot() models.RunCounters {
	added := int(c.added.Load())
	updated := int(c.updated.Load())
	return models.RunCounters{
		Found:            int(c.found.Load()),
		Candidates:       int(c.candidates.Load()),
		Added:            added,
		Updated:          updated,
		SkippedOld:       int(c.skippedOld.Load()),
		SkippedUnchanged: int(c.skippedUnchanged.Load()),
		NoTimestamp:      int(c.noTimestamp.Load()),
		Writes:           added + updated,
		Errors:           int(c.errors.Load()),
	}
}

// sampleRing keeps the first MaxErrorSamples error samples of a run.
type sampleRing struct {
	mu      sync.Mutex
	samples []models.ErrorSample
}

// Add records a sample unless the ring is already full.
func (r *sampleRing) Add(url, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.samples) >= models.MaxErrorSamples {
		return
	}
	r.samples = append(r.samples, models.ErrorSample{
		URL:     url,
		Message: message,
		At:      time.Now(),
	})
}

// Samples returns a copy of the collected samples.
func (r *sampleRing) Samples() []models.ErrorSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ErrorSample, len(r.samples))
	copy(out, r.samples)
	return out
}
