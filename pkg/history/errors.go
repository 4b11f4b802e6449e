package history

import "errors"

var (
	// ErrEntryNotFound is returned when a history entry does not exist.
	ErrEntryNotFound = errors.New("history entry not found")

	// ErrInvalidEntry is returned when an entry fails validation before append.
	ErrInvalidEntry = errors.New("invalid history entry")
)
