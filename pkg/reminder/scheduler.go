package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/notify/pkg/dispatch"
	"github.com/clinicbook/notify/pkg/logger"
)

// AppointmentStore exposes the upcoming-appointment projection the scheduler
// scans. Implementations return appointments still awaiting their start time
// (cancelled ones excluded) whose date falls inside [from, to).
type AppointmentStore interface {
	Upcoming(ctx context.Context, from, to time.Time) ([]Appointment, error)
}

// Appointment is the projection the reminder scheduler needs.
type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	PatientName string
	DoctorName  string
	Date        time.Time
}

// Scheduler periodically scans for appointments entering a reminder window
// and dispatches the patient and doctor reminders at high priority.
//
// Duplicate suppression is geometric: each pass looks at a band of fixed
// width per lead time, so an appointment is seen by at most
// bandWidth/tickInterval passes of the same band. Restarting mid-band can
// re-send a reminder; the ledger records every send, so operators can audit
// duplicates.
type Scheduler struct {
	appointments AppointmentStore
	dispatcher   *dispatch.Dispatcher
	tickInterval time.Duration
	leads        []time.Duration
	bandWidth    time.Duration
	logger       *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval overrides the scan cadence.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithLeads overrides the reminder lead times.
func WithLeads(leads ...time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if len(leads) > 0 {
			s.leads = leads
		}
	}
}

// WithBandWidth overrides the width of each lookahead band.
func WithBandWidth(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.bandWidth = d
		}
	}
}

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(log *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewScheduler creates a reminder scheduler with 5m ticks and two lookahead
// bands: one hour and thirty minutes before the appointment, each 15m wide.
func NewScheduler(appointments AppointmentStore, dispatcher *dispatch.Dispatcher, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		appointments: appointments,
		dispatcher:   dispatcher,
		tickInterval: 5 * time.Minute,
		leads:        []time.Duration{time.Hour, 30 * time.Minute},
		bandWidth:    15 * time.Minute,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans until ctx is cancelled, finishing the in-flight pass first.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "reminder scheduler started",
		slog.Duration("tick_interval", s.tickInterval),
		slog.Duration("band_width", s.bandWidth))

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		s.Scan(ctx, time.Now())

		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "reminder scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Scan runs one pass over every lookahead band relative to now.
func (s *Scheduler) Scan(ctx context.Context, now time.Time) {
	for _, lead := range s.leads {
		from := now.Add(lead)
		to := from.Add(s.bandWidth)

		appts, err := s.appointments.Upcoming(ctx, from, to)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to load upcoming appointments",
				slog.Duration("lead", lead), logger.Error(err))
			continue
		}

		for _, appt := range appts {
			ok := s.dispatcher.AppointmentReminder(ctx, dispatch.Appointment{
				ID:          appt.ID,
				PatientID:   appt.PatientID,
				DoctorID:    appt.DoctorID,
				PatientName: appt.PatientName,
				DoctorName:  appt.DoctorName,
				DateDisplay: appt.Date.Format("Mon, 02 Jan 2006 at 15:04"),
			})
			if !ok {
				s.logger.WarnContext(ctx, "reminder dispatch incomplete",
					logger.AppointmentID(appt.ID), slog.Duration("lead", lead))
			}
		}
	}
}
