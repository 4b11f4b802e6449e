package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/notify/pkg/history"
	"github.com/clinicbook/notify/pkg/logger"
	"github.com/clinicbook/notify/pkg/mailqueue"
	"github.com/clinicbook/notify/pkg/notification"
	"github.com/clinicbook/notify/pkg/template"
)

// Dispatcher fans one notification event out to the channels its template
// requires: the in-app feed, the durable email queue, and the history ledger.
//
// Send never returns an error and never panics. Notification delivery is a
// side effect of the caller's main operation (booking, cancelling, paying) -
// that operation must not fail because a template is missing or a store is
// down. Failures are logged and reported as a bare false.
type Dispatcher struct {
	templates     template.Storage
	users         UserDirectory
	notifications *notification.Manager
	queue         mailqueue.Storage
	history       history.Storage
	logger        *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.logger = log
		}
	}
}

// NewDispatcher wires the dispatcher to its stores and the user directory.
func NewDispatcher(
	templates template.Storage,
	users UserDirectory,
	notifications *notification.Manager,
	queue mailqueue.Storage,
	hist history.Storage,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		templates:     templates,
		users:         users,
		notifications: notifications,
		queue:         queue,
		history:       hist,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send dispatches one notification of the given type to one user. Returns
// true only when every required channel was recorded successfully.
func (d *Dispatcher) Send(ctx context.Context, typ string, userID uuid.UUID, params template.Params, opts ...SendOption) bool {
	options := &sendOptions{}
	for _, opt := range opts {
		opt(options)
	}

	tpl, err := d.templates.GetByType(ctx, typ)
	if err != nil {
		d.logger.ErrorContext(ctx, "dispatch skipped: template unavailable",
			logger.NotificationType(typ), logger.UserID(userID), logger.Error(err))
		return false
	}

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		d.logger.ErrorContext(ctx, "dispatch skipped: user unavailable",
			logger.NotificationType(typ), logger.UserID(userID), logger.Error(err))
		return false
	}

	subject := template.Render(tpl.Subject, params)
	body := template.Render(tpl.Body, params)
	emailBody := template.Render(tpl.EmailBody, params)

	priority := tpl.Priority
	if options.priority != "" {
		priority = options.priority
	}

	corr := extractCorrelation(params)

	var channelErr error

	inAppSent := false
	if tpl.RequiresInApp {
		notif := &notification.Notification{
			UserID:        userID,
			Title:         subject,
			Message:       body,
			Type:          tpl.Type,
			Priority:      string(priority),
			AppointmentID: corr.appointmentID,
			DoctorID:      corr.doctorID,
			RelatedType:   corr.relatedType,
			RelatedID:     corr.relatedID,
			ActionURL:     corr.actionURL,
		}
		if err := d.notifications.Create(ctx, notif); err != nil {
			d.logger.ErrorContext(ctx, "failed to create in-app notification",
				logger.NotificationType(typ), logger.UserID(userID), logger.Error(err))
			channelErr = err
		} else {
			inAppSent = true
		}
	}

	emailApplicable := tpl.RequiresEmail && user.Email != ""
	emailQueued := false
	if emailApplicable {
		job := &mailqueue.Job{
			TemplateID:  tpl.ID,
			UserID:      userID,
			Email:       user.Email,
			Subject:     subject,
			Body:        body,
			EmailBody:   emailBody,
			Priority:    priority,
			Type:        tpl.Type,
			ScheduledAt: options.scheduledAt,
			Metadata:    serializeParams(params),
		}
		if err := d.queue.Enqueue(ctx, job); err != nil {
			d.logger.ErrorContext(ctx, "failed to enqueue email job",
				logger.NotificationType(typ), logger.UserID(userID), logger.Error(err))
			if channelErr == nil {
				channelErr = err
			}
		} else {
			emailQueued = true
		}
	}

	failed := (tpl.RequiresInApp && !inAppSent) || (emailApplicable && !emailQueued)
	if !tpl.RequiresInApp && !emailApplicable {
		// Template requires no channel that applies here, e.g. an email-only
		// template for a user without an address.
		failed = true
		channelErr = errors.New("no deliverable channel for recipient")
		d.logger.WarnContext(ctx, "dispatch matched no deliverable channel",
			logger.NotificationType(typ), logger.UserID(userID))
	}

	// The ledger records the attempt regardless of channel outcome.
	method := deliveryMethod(tpl.RequiresInApp, emailApplicable)
	if !tpl.RequiresInApp && !emailApplicable {
		method = deliveryMethod(tpl.RequiresInApp, tpl.RequiresEmail)
	}
	status := history.StatusSent
	errMsg := ""
	if failed {
		status = history.StatusFailed
		if channelErr != nil {
			errMsg = channelErr.Error()
		}
	}

	entry := &history.Entry{
		UserID:        userID,
		TemplateID:    tpl.ID,
		Subject:       subject,
		Body:          body,
		Type:          tpl.Type,
		Method:        method,
		Status:        status,
		ErrorMessage:  errMsg,
		AppointmentID: corr.appointmentID,
		DoctorID:      corr.doctorID,
		RelatedType:   corr.relatedType,
		RelatedID:     corr.relatedID,
	}
	if tpl.RequiresEmail {
		entry.EmailBody = emailBody
	}
	if err := d.history.Append(ctx, entry); err != nil {
		d.logger.ErrorContext(ctx, "failed to append history entry",
			logger.NotificationType(typ), logger.UserID(userID), logger.Error(err))
		return false
	}

	// Partial channel failure still counts as failure so callers can alert,
	// even though the surviving channel was delivered.
	return !failed
}

// SendBulk dispatches the same notification to several users. Returns true
// only when every individual dispatch succeeded.
func (d *Dispatcher) SendBulk(ctx context.Context, typ string, userIDs []uuid.UUID, params template.Params, opts ...SendOption) bool {
	ok := true
	for _, id := range userIDs {
		if !d.Send(ctx, typ, id, params, opts...) {
			ok = false
		}
	}
	return ok
}

// Schedule dispatches with email delivery deferred to the given time.
func (d *Dispatcher) Schedule(ctx context.Context, userID uuid.UUID, typ string, at time.Time, params template.Params, opts ...SendOption) bool {
	return d.Send(ctx, typ, userID, params, append(opts, WithScheduledAt(at))...)
}

func deliveryMethod(inApp, email bool) history.DeliveryMethod {
	switch {
	case inApp && email:
		return history.MethodBoth
	case email:
		return history.MethodEmail
	default:
		return history.MethodInApp
	}
}

type correlation struct {
	appointmentID *uuid.UUID
	doctorID      *uuid.UUID
	relatedType   string
	relatedID     string
	actionURL     string
}

// Correlation parameter keys. Params carrying these are copied onto the
// notification and history records in addition to normal placeholder
// substitution.
const (
	ParamAppointmentID = "AppointmentID"
	ParamDoctorID      = "DoctorID"
	ParamRelatedType   = "RelatedType"
	ParamRelatedID     = "RelatedID"
	ParamActionURL     = "ActionURL"
)

func extractCorrelation(params template.Params) correlation {
	return correlation{
		appointmentID: extractUUID(params[ParamAppointmentID]),
		doctorID:      extractUUID(params[ParamDoctorID]),
		relatedType:   extractString(params[ParamRelatedType]),
		relatedID:     extractString(params[ParamRelatedID]),
		actionURL:     extractString(params[ParamActionURL]),
	}
}

func extractUUID(v any) *uuid.UUID {
	switch id := v.(type) {
	case uuid.UUID:
		if id != uuid.Nil {
			return &id
		}
	case *uuid.UUID:
		if id != nil && *id != uuid.Nil {
			cp := *id
			return &cp
		}
	case string:
		if parsed, err := uuid.Parse(id); err == nil {
			return &parsed
		}
	}
	return nil
}

func extractString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func serializeParams(params template.Params) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = fmt.Sprint(v)
	}
	return out
}
