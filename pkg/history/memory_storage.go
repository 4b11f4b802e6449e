package history

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
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemoryStorage creates a new in-memory history storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Append(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.UserID == uuid.Nil {
		return fmt.Errorf("%w: user ID is required", ErrInvalidEntry)
	}
	if !entry.Method.Valid() {
		return fmt.Errorf("%w: unknown delivery method %q", ErrInvalidEntry, entry.Method)
	}
	if entry.Status == "" {
		entry.Status = StatusSent
	}
	if !entry.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEntry, entry.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now()
	}

	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *MemoryStorage) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []Entry
	for _, e := range s.entries {
		if opts.UserID != uuid.Nil && e.UserID != opts.UserID {
			continue
		}
		if opts.Type != "" && e.Type != opts.Type {
			continue
		}
		if !opts.From.IsZero() && e.SentAt.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && e.SentAt.After(opts.To) {
			continue
		}
		filtered = append(filtered, *e)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].SentAt.After(filtered[j].SentAt)
	})

	if opts.Offset > len(filtered) {
		return []Entry{}, nil
	}
	filtered = filtered[opts.Offset:]
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

func (s *MemoryStorage) CountByType(ctx context.Context, from, to time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range s.entries {
		if !from.IsZero() && e.SentAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.SentAt.After(to) {
			continue
		}
		counts[e.Type]++
	}
	return counts, nil
}

func (s *MemoryStorage) SyncReadAt(ctx context.Context, userID uuid.UUID, notifType string, readAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, e := range s.entries {
		if e.UserID == userID && (notifType == "" || e.Type == notifType) && e.ReadAt == nil {
			t := readAt
			e.ReadAt = &t
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*Entry
	var removed int64
	for _, e := range s.entries {
		if e.SentAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed, nil
}
