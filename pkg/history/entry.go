package history

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryMethod records which channels a dispatch used.
type DeliveryMethod string

const (
	MethodEmail DeliveryMethod = "email"
	MethodInApp DeliveryMethod = "in-app"
	MethodBoth  DeliveryMethod = "both"
)

// Valid reports whether the method is one of the known channels.
func (m DeliveryMethod) Valid() bool {
	switch m {
	case MethodEmail, MethodInApp, MethodBoth:
		return true
	}
	return false
}

// Status records the outcome of the dispatch attempt the entry describes.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Valid reports whether the status is a known outcome.
func (s Status) Valid() bool {
	return s == StatusSent || s == StatusFailed
}

// Entry is one append-only record of a dispatched notification. Entries are
// written once at dispatch time and never updated, except the best-effort
// read-time sync from the in-app feed.
type Entry struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	TemplateID    uuid.UUID      `json:"template_id"`
	Subject       string         `json:"subject"`
	Body          string         `json:"body"`
	EmailBody     string         `json:"email_body,omitempty"`
	Type          string         `json:"type"`
	Method        DeliveryMethod `json:"method"`
	Status        Status         `json:"status"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	SentAt        time.Time      `json:"sent_at"`
	ReadAt        *time.Time     `json:"read_at,omitempty"`
	AppointmentID *uuid.UUID     `json:"appointment_id,omitempty"`
	DoctorID      *uuid.UUID     `json:"doctor_id,omitempty"`
	RelatedType   string         `json:"related_type,omitempty"`
	RelatedID     string         `json:"related_id,omitempty"`
}
