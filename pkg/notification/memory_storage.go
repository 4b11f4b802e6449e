package notification

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	mu            sync.RWMutex
	notifications map[uuid.UUID][]*Notification // userID -> notifications
}

// NewMemoryStorage creates a new in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notifications: make(map[uuid.UUID][]*Notification),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, notif *Notification) error {
	if notif == nil || notif.UserID == uuid.Nil {
		return fmt.Errorf("%w: user ID is required", ErrInvalidNotification)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if notif.ID == uuid.Nil {
		notif.ID = uuid.New()
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}

	cp := *notif
	s.notifications[notif.UserID] = append(s.notifications[notif.UserID], &cp)
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, userID, notifID uuid.UUID) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications[userID] {
		if n.ID == notifID {
			// Return a copy to prevent external mutation of stored data.
			cp := *n
			return &cp, nil
		}
	}
	return nil, ErrNotificationNotFound
}

func (s *MemoryStorage) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []Notification
	for _, n := range s.notifications[userID] {
		if opts.OnlyUnread && n.Read {
			continue
		}
		if opts.Type != "" && n.Type != opts.Type {
			continue
		}
		if opts.Since != nil && n.CreatedAt.Before(*opts.Since) {
			continue
		}
		filtered = append(filtered, *n)
	}

	// Newest first.
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(filtered) {
		return []Notification{}, nil
	}

	end := start + opts.Limit
	if opts.Limit == 0 || end > len(filtered) {
		end = len(filtered)
	}

	return filtered[start:end], nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, userID, notifID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications[userID] {
		if n.ID == notifID {
			return n.MarkAsRead(), nil
		}
	}
	return false, ErrNotificationNotFound
}

func (s *MemoryStorage) MarkManyRead(ctx context.Context, userID uuid.UUID, notifIDs ...uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idSet := make(map[uuid.UUID]bool, len(notifIDs))
	for _, id := range notifIDs {
		idSet[id] = true
	}

	updated := 0
	for _, n := range s.notifications[userID] {
		if idSet[n.ID] && n.MarkAsRead() {
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStorage) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, n := range s.notifications[userID] {
		if n.MarkAsRead() {
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications[userID] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for userID, list := range s.notifications {
		var kept []*Notification
		for _, n := range list {
			if n.CreatedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		s.notifications[userID] = kept
	}
	return removed, nil
}
