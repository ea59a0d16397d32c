package common

import (
	"github.com/google/uuid"
)

// NewRunID generates a unique run ID with the "run_" prefix
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewFeedID generates a unique feed ID with the "feed_" prefix
// Format: feed_<uuid>
func NewFeedID() string {
	return "feed_" + uuid.New().String()
}
