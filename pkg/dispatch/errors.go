package dispatch

import "errors"

var (
	// ErrUserNotFound is returned by UserDirectory implementations when the
	// recipient does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDeliveryTransport marks a failure in the email transport layer.
	ErrDeliveryTransport = errors.New("delivery transport failed")
)
