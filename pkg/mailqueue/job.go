package mailqueue

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/notify/pkg/template"
)

// Status is the delivery lifecycle state of a queued email job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions except
// the manual failed -> pending retry.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusCancelled
}

// Job is a durable email delivery job. Jobs survive process restarts; the
// queue worker picks them up by priority rank, then scheduled time.
type Job struct {
	ID           uuid.UUID         `json:"id"`
	TemplateID   uuid.UUID         `json:"template_id"`
	UserID       uuid.UUID         `json:"user_id"`
	Email        string            `json:"email"`
	Subject      string            `json:"subject"`
	Body         string            `json:"body"`
	EmailBody    string            `json:"email_body,omitempty"`
	Status       Status            `json:"status"`
	Priority     template.Priority `json:"priority"`
	Type         string            `json:"type"`
	ScheduledAt  time.Time         `json:"scheduled_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	RetryCount   int               `json:"retry_count"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// PriorityRank maps a priority to its queue ordering rank. Urgent jobs drain
// first, then high; normal and low share the lowest rank and fall back to
// scheduled-time ordering between themselves.
func PriorityRank(p template.Priority) int {
	switch p {
	case template.PriorityUrgent:
		return 1
	case template.PriorityHigh:
		return 2
	default:
		return 3
	}
}
