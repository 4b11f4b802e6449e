package template

import (
	"context"
)

// Storage is the template registry persistence interface.
type Storage interface {
	// Create stores a new template. Returns ErrTemplateExists when a template
	// with an equal, case-sensitive type key is already present.
	Create(ctx context.Context, tpl *Template) error

	// Update replaces the mutable fields of an existing template in place.
	Update(ctx context.Context, tpl *Template) error

	// GetByType returns the active template for the given type key.
	// Inactive templates are treated as absent.
	GetByType(ctx context.Context, typ string) (*Template, error)

	// GetByRole returns all active templates targeting the given role or the
	// wildcard RoleAll.
	GetByRole(ctx context.Context, role Role) ([]Template, error)

	// ExistsByType reports whether any template (active or not) holds the type key.
	ExistsByType(ctx context.Context, typ string) (bool, error)

	// SetActive toggles the soft-disable flag for the given type key.
	SetActive(ctx context.Context, typ string, active bool) error
}
