package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a user-visible feed entry, distinct from the delivery queue
// job that may accompany it. Workers never touch these records; the only
// mutation after creation is marking as read, and that transition is
// monotonic - a read notification never becomes unread again.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`     // notification type key, e.g. "NEW_APPOINTMENT"
	Priority  string     `json:"priority"` // template priority tag
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// Correlation references, populated when the dispatch parameters carry them.
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	DoctorID      *uuid.UUID `json:"doctor_id,omitempty"`
	RelatedType   string     `json:"related_type,omitempty"`
	RelatedID     string     `json:"related_id,omitempty"`
	ActionURL     string     `json:"action_url,omitempty"`
}

// MarkAsRead marks the notification as read with the current timestamp.
// Returns false if it was already read.
func (n *Notification) MarkAsRead() bool {
	if n.Read {
		return false
	}
	n.Read = true
	now := time.Now()
	n.ReadAt = &now
	return true
}
