package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/notify/pkg/logger"
)

// Manager orchestrates notification storage and the optional unread-count
// cache. The cache is advisory: every cache failure is logged and the call
// falls back to storage, so a dead Redis never breaks the feed.
type Manager struct {
	storage  Storage
	cache    UnreadCache
	readSync ReadSyncer
	logger   *slog.Logger
}

// ReadSyncer mirrors feed read times into the dispatch ledger. An empty
// notification type matches every type.
type ReadSyncer interface {
	SyncReadAt(ctx context.Context, userID uuid.UUID, notifType string, readAt time.Time) (int, error)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.logger = log
		}
	}
}

// WithUnreadCache enables the unread-count cache.
func WithUnreadCache(cache UnreadCache) ManagerOption {
	return func(m *Manager) {
		m.cache = cache
	}
}

// WithReadSync copies read times into the given ledger after mark-read
// operations. Sync failures are logged, never returned.
func WithReadSync(rs ReadSyncer) ManagerOption {
	return func(m *Manager) {
		m.readSync = rs
	}
}

// NewManager creates a new notification manager.
func NewManager(storage Storage, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage: storage,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Create stores a new feed entry and invalidates the owner's unread count.
func (m *Manager) Create(ctx context.Context, notif *Notification) error {
	if err := m.storage.Create(ctx, notif); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	m.invalidate(ctx, notif.UserID)
	return nil
}

func (m *Manager) Get(ctx context.Context, userID, notifID uuid.UUID) (*Notification, error) {
	return m.storage.Get(ctx, userID, notifID)
}

func (m *Manager) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error) {
	return m.storage.List(ctx, userID, opts)
}

// MarkRead marks a single notification as read. Returns false when the
// notification was already read; the stored read_at is never rewritten.
func (m *Manager) MarkRead(ctx context.Context, userID, notifID uuid.UUID) (bool, error) {
	updated, err := m.storage.MarkRead(ctx, userID, notifID)
	if err != nil {
		return false, err
	}
	if updated {
		m.invalidate(ctx, userID)
		if m.readSync != nil {
			if notif, err := m.storage.Get(ctx, userID, notifID); err == nil && notif.ReadAt != nil {
				m.syncReadAt(ctx, userID, notif.Type, *notif.ReadAt)
			}
		}
	}
	return updated, nil
}

// MarkManyRead marks the given notifications as read, skipping those already
// read, and returns the number actually updated.
func (m *Manager) MarkManyRead(ctx context.Context, userID uuid.UUID, notifIDs ...uuid.UUID) (int, error) {
	updated, err := m.storage.MarkManyRead(ctx, userID, notifIDs...)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		m.invalidate(ctx, userID)
	}
	return updated, nil
}

// MarkAllRead marks every unread notification of the user as read.
func (m *Manager) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	updated, err := m.storage.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		m.invalidate(ctx, userID)
		if m.readSync != nil {
			m.syncReadAt(ctx, userID, "", time.Now())
		}
	}
	return updated, nil
}

// CountUnread returns the unread count, served from cache when possible.
func (m *Manager) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.cache != nil {
		if count, ok, err := m.cache.Get(ctx, userID); err == nil && ok {
			return count, nil
		} else if err != nil {
			m.logger.LogAttrs(ctx, slog.LevelWarn, "unread cache read failed, falling back to storage",
				logger.UserID(userID), logger.Error(err))
		}
	}

	count, err := m.storage.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, userID, count); err != nil {
			m.logger.LogAttrs(ctx, slog.LevelWarn, "unread cache write failed",
				logger.UserID(userID), logger.Error(err))
		}
	}
	return count, nil
}

// DeleteOlderThan removes notifications created before the cutoff.
func (m *Manager) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return m.storage.DeleteOlderThan(ctx, cutoff)
}

// Storage returns the underlying notification storage.
func (m *Manager) Storage() Storage {
	return m.storage
}

func (m *Manager) syncReadAt(ctx context.Context, userID uuid.UUID, notifType string, readAt time.Time) {
	if _, err := m.readSync.SyncReadAt(ctx, userID, notifType, readAt); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "ledger read sync failed",
			logger.UserID(userID), logger.Error(err))
	}
}

func (m *Manager) invalidate(ctx context.Context, userID uuid.UUID) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, userID); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "unread cache invalidation failed",
			logger.UserID(userID), logger.Error(err))
	}
}
