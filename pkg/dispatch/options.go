package dispatch

import (
	"time"

	"github.com/clinicbook/notify/pkg/template"
)

// SendOption adjusts a single dispatch.
type SendOption func(*sendOptions)

type sendOptions struct {
	priority    template.Priority
	scheduledAt time.Time
}

// WithPriority overrides the template's default priority for this dispatch.
func WithPriority(p template.Priority) SendOption {
	return func(o *sendOptions) {
		if p.Valid() {
			o.priority = p
		}
	}
}

// WithScheduledAt defers email delivery until the given time. The in-app
// notification is still created immediately.
func WithScheduledAt(at time.Time) SendOption {
	return func(o *sendOptions) {
		o.scheduledAt = at
	}
}
