package filter

import (
	"strings"
	"time"

	"github.com/ternarybob/venari/internal/adapters"
)

// RecencyResult is the outcome of the recency gate for one posting.
type RecencyResult struct {
	Keep         bool
	Reason       Reason
	Effective    time.Time
	EffectiveMs  int64
	EffectiveIso string
}

// timestampLayouts are tried in order when parsing upstream timestamps.
// time.RFC3339 also accepts fractional seconds.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// EvaluateRecency applies the recency rule: the effective instant is the max
// of updated_at and first_published (for ashby both carry publishedAt, so
// the max degenerates to it). Absent or unparseable timestamps yield
// no_timestamp; instants before now-window yield too_old.
func EvaluateRecency(posting adapters.UniformPosting, now time.Time, window time.Duration) RecencyResult {
	updated, updatedOK := parseTimestamp(posting.UpdatedAt)
	published, publishedOK := parseTimestamp(posting.FirstPublished)

	var effective time.Time
	var effectiveIso string
	switch {
	case updatedOK && publishedOK:
		if published.After(updated) {
			effective, effectiveIso = published, posting.FirstPublished
		} else {
			effective, effectiveIso = updated, posting.UpdatedAt
		}
	case updatedOK:
		effective, effectiveIso = updated, posting.UpdatedAt
	case publishedOK:
		effective, effectiveIso = published, posting.FirstPublished
	default:
		return RecencyResult{Reason: ReasonNoTimestamp}
	}

	result := RecencyResult{
		Effective:    effective,
		EffectiveMs:  effective.UnixMilli(),
		EffectiveIso: effectiveIso,
	}

	if effective.Before(now.Add(-window)) {
		result.Reason = ReasonTooOld
		return result
	}

	result.Keep = true
	result.Reason = ReasonKeep
	return result
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
