package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListOptions filters and paginates history queries.
type ListOptions struct {
	UserID uuid.UUID // uuid.Nil means all users
	Type   string    // empty means all types
	From   time.Time // zero means unbounded
	To     time.Time // zero means unbounded
	Limit  int
	Offset int
}

// Storage persists the append-only dispatch ledger.
type Storage interface {
	// Append writes one entry. Entries are immutable after this call, with
	// the sole exception of SyncReadAt.
	Append(ctx context.Context, entry *Entry) error

	// List returns entries matching the options, newest first.
	List(ctx context.Context, opts ListOptions) ([]Entry, error)

	// CountByType returns per-type dispatch counts within the range. Zero
	// bounds are unbounded on that side.
	CountByType(ctx context.Context, from, to time.Time) (map[string]int, error)

	// SyncReadAt stamps the read time on the user's unread entries for the
	// given notification type; an empty type matches every type. Best
	// effort; the ledger tolerates drift from the live feed.
	SyncReadAt(ctx context.Context, userID uuid.UUID, notifType string, readAt time.Time) (int, error)

	// DeleteOlderThan removes entries sent before the cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
