package dispatch

import (
	"context"

	"github.com/google/uuid"
)

// User is the recipient projection the dispatcher needs: an address to mail
// and a name for rendered content.
type User struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// UserDirectory resolves recipients. The booking platform supplies the
// implementation; tests use a mock.
type UserDirectory interface {
	// GetByID returns the user or ErrUserNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}
