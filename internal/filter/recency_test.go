package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/venari/internal/adapters"
)

var recencyNow = time.Date(2025, 11, 4, 16, 0, 0, 0, time.UTC)

func TestEvaluateRecency_FreshUpdated(t *testing.T) {
	posting := adapters.UniformPosting{
		UpdatedAt:      "2025-11-04T15:30:00Z",
		FirstPublished: "2025-10-01T09:00:00Z",
	}

	result := EvaluateRecency(posting, recencyNow, time.Hour)
	assert.True(t, result.Keep)
	assert.Equal(t, ReasonKeep, result.Reason)
	assert.Equal(t, "2025-11-04T15:30:00Z", result.EffectiveIso)
	assert.Equal(t, result.Effective.UnixMilli(), result.EffectiveMs)
}

func TestEvaluateRecency_PublishedNewerThanUpdated(t *testing.T) {
	// The effective instant is the max of the two fields.
	posting := adapters.UniformPosting{
		UpdatedAt:      "2025-11-04T14:00:00Z",
		FirstPublished: "2025-11-04T15:45:00Z",
	}

	result := EvaluateRecency(posting, recencyNow, time.Hour)
	assert.True(t, result.Keep)
	assert.Equal(t, "2025-11-04T15:45:00Z", result.EffectiveIso)
}

func TestEvaluateRecency_TooOld(t *testing.T) {
	posting := adapters.UniformPosting{
		UpdatedAt: "2025-11-04T13:00:00Z",
	}

	result := EvaluateRecency(posting, recencyNow, time.Hour)
	assert.False(t, result.Keep)
	assert.Equal(t, ReasonTooOld, result.Reason)
	// Effective fields are still populated for diagnostics.
	assert.NotZero(t, result.EffectiveMs)
}

func TestEvaluateRecency_ExactWindowBoundaryKept(t *testing.T) {
	posting := adapters.UniformPosting{
		UpdatedAt: "2025-11-04T15:00:00Z",
	}

	result := EvaluateRecency(posting, recencyNow, time.Hour)
	assert.True(t, result.Keep, "an instant exactly at now-window is not before it")
}

func TestEvaluateRecency_NoTimestamp(t *testing.T) {
	tests := []adapters.UniformPosting{
		{},
		{UpdatedAt: "   "},
		{UpdatedAt: "soonish", FirstPublished: "last tuesday"},
	}

	for _, posting := range tests {
		result := EvaluateRecency(posting, recencyNow, time.Hour)
		assert.False(t, result.Keep)
		assert.Equal(t, ReasonNoTimestamp, result.Reason)
		assert.Zero(t, result.EffectiveMs)
	}
}

func TestEvaluateRecency_OneParseableField(t *testing.T) {
	posting := adapters.UniformPosting{
		UpdatedAt:      "garbage",
		FirstPublished: "2025-11-04T15:30:00Z",
	}

	result := EvaluateRecency(posting, recencyNow, time.Hour)
	assert.True(t, result.Keep)
	assert.Equal(t, "2025-11-04T15:30:00Z", result.EffectiveIso)
}

func TestEvaluateRecency_FallbackLayouts(t *testing.T) {
	posting := adapters.UniformPosting{UpdatedAt: "2025-11-04 15:30:00"}
	result := EvaluateRecency(posting, recencyNow, time.Hour)
	assert.True(t, result.Keep)

	posting = adapters.UniformPosting{UpdatedAt: "2025-11-04"}
	result = EvaluateRecency(posting, recencyNow, 24*time.Hour)
	assert.True(t, result.Keep)
}
