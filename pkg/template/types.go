package template

import (
	"time"

	"github.com/google/uuid"
)

// Priority is the delivery priority tag carried by a template and inherited
// by the queue jobs and in-app notifications rendered from it.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether the priority is one of the known tags.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Role is the audience a template targets. RoleAll matches every audience.
type Role string

const (
	RoleDoctor   Role = "doctor"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleAll      Role = "all"
)

// Template is a reusable, versionless message definition for one notification
// type. Templates are soft-disabled via Active rather than deleted because
// historical queue jobs and history entries reference them.
type Template struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"` // unique key, e.g. "NEW_APPOINTMENT"
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`       // in-app body
	EmailBody     string    `json:"email_body"` // HTML email body
	Priority      Priority  `json:"priority"`
	Role          Role      `json:"role"`
	RequiresEmail bool      `json:"requires_email"`
	RequiresInApp bool      `json:"requires_in_app"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
