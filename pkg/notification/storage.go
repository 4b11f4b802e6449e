package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage handles notification persistence and retrieval.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, notif *Notification) error

	// Get retrieves a single notification scoped to its owner.
	Get(ctx context.Context, userID, notifID uuid.UUID) (*Notification, error)

	// List returns notifications for a user, newest first.
	List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error)

	// MarkRead marks a single notification as read. Returns false without
	// touching ReadAt when the notification is already read.
	MarkRead(ctx context.Context, userID, notifID uuid.UUID) (bool, error)

	// MarkManyRead marks the given notifications as read, skipping those
	// already read. Returns the number of rows actually updated.
	MarkManyRead(ctx context.Context, userID uuid.UUID, notifIDs ...uuid.UUID) (int, error)

	// MarkAllRead marks every unread notification of the user as read and
	// returns the number updated.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)

	// CountUnread returns the unread count for a user.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// DeleteOlderThan removes notifications created before the cutoff,
	// returning the number removed. Used by retention cleanup.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListOptions provides filtering and pagination for listing notifications.
type ListOptions struct {
	Limit      int        // Maximum number of notifications to return (0 = no limit)
	Offset     int        // Number of notifications to skip for pagination
	OnlyUnread bool       // When true, only return unread notifications
	Type       string     // If set, only return notifications of this type
	Since      *time.Time // If set, only return notifications created after this time
}
