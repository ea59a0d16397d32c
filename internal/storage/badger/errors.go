package badger

import (
	"context"
	"errors"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// IsTransientError classifies storage errors the bulk writer may retry:
// write conflicts, temporarily blocked writes, deadline pressure, and
// resource exhaustion. Everything else is permanent and fails the write.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, badgerdb.ErrConflict) ||
		errors.Is(err, badgerdb.ErrBlockedWrites) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "resource temporarily unavailable") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "unavailable")
}
