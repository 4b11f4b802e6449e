package template

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	mu        sync.RWMutex
	templates map[string]*Template // type key -> template
}

// NewMemoryStorage creates a new in-memory template registry.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		templates: make(map[string]*Template),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, tpl *Template) error {
	if tpl == nil || tpl.Type == "" {
		return fmt.Errorf("%w: type key is required", ErrInvalidTemplate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[tpl.Type]; exists {
		return fmt.Errorf("%w: %s", ErrTemplateExists, tpl.Type)
	}

	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	now := time.Now()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now
	if tpl.Priority == "" {
		tpl.Priority = PriorityNormal
	}

	cp := *tpl
	s.templates[tpl.Type] = &cp
	return nil
}

func (s *MemoryStorage) Update(ctx context.Context, tpl *Template) error {
	if tpl == nil || tpl.Type == "" {
		return fmt.Errorf("%w: type key is required", ErrInvalidTemplate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.templates[tpl.Type]
	if !exists {
		return ErrTemplateNotFound
	}

	tpl.ID = existing.ID
	tpl.CreatedAt = existing.CreatedAt
	tpl.UpdatedAt = time.Now()

	cp := *tpl
	s.templates[tpl.Type] = &cp
	return nil
}

func (s *MemoryStorage) GetByType(ctx context.Context, typ string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, exists := s.templates[typ]
	if !exists || !tpl.Active {
		return nil, ErrTemplateNotFound
	}

	// Return a copy to prevent external mutation of stored data.
	cp := *tpl
	return &cp, nil
}

func (s *MemoryStorage) GetByRole(ctx context.Context, role Role) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Template
	for _, tpl := range s.templates {
		if !tpl.Active {
			continue
		}
		if tpl.Role == role || tpl.Role == RoleAll {
			out = append(out, *tpl)
		}
	}
	return out, nil
}

func (s *MemoryStorage) ExistsByType(ctx context.Context, typ string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.templates[typ]
	return exists, nil
}

func (s *MemoryStorage) SetActive(ctx context.Context, typ string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl, exists := s.templates[typ]
	if !exists {
		return ErrTemplateNotFound
	}

	tpl.Active = active
	tpl.UpdatedAt = time.Now()
	return nil
}
