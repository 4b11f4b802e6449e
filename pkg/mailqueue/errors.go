package mailqueue

import "errors"

var (
	// ErrJobNotFound is returned when a queue job does not exist.
	ErrJobNotFound = errors.New("mail queue job not found")

	// ErrInvalidJob is returned when a job fails validation before enqueue.
	ErrInvalidJob = errors.New("invalid mail queue job")

	// ErrInvalidStatus is returned when an operation names an unknown status.
	ErrInvalidStatus = errors.New("invalid mail queue status")

	// ErrInvalidTransition is returned when a status change is requested on a
	// job that is not in the expected prior state.
	ErrInvalidTransition = errors.New("invalid mail queue status transition")
)
