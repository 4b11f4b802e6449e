package notification

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification is not found.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrInvalidNotification is returned when a notification fails basic validation.
	ErrInvalidNotification = errors.New("invalid notification")
)
