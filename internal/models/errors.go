package models

import "errors"

// Sentinel errors shared across storage and queue implementations.
var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned by atomic creates when the key is taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNoMessage is returned when the dispatch queue has nothing visible.
	ErrNoMessage = errors.New("no message")

	// ErrRunTerminal is returned when a status write targets a run that
	// already reached a terminal status.
	ErrRunTerminal = errors.New("run already terminal")
)
