package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/notify/pkg/template"
)

// Appointment carries the fields the appointment notifications render.
// DateDisplay is the pre-formatted, recipient-facing date string.
type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	PatientName string
	DoctorName  string
	DateDisplay string
}

func (a Appointment) params() template.Params {
	return template.Params{
		"PatientName":      a.PatientName,
		"DoctorName":       a.DoctorName,
		"AppointmentDate":  a.DateDisplay,
		ParamAppointmentID: a.ID,
		ParamDoctorID:      a.DoctorID,
		ParamRelatedType:   "appointment",
		ParamRelatedID:     a.ID.String(),
	}
}

// AppointmentBooked notifies the doctor that a patient booked an appointment.
func (d *Dispatcher) AppointmentBooked(ctx context.Context, appt Appointment) bool {
	return d.Send(ctx, template.TypeNewAppointment, appt.DoctorID, appt.params())
}

// AppointmentConfirmed notifies the patient that the doctor confirmed.
func (d *Dispatcher) AppointmentConfirmed(ctx context.Context, appt Appointment) bool {
	return d.Send(ctx, template.TypeAppointmentConfirmed, appt.PatientID, appt.params())
}

// AppointmentUpdated notifies both parties about a rescheduled appointment.
func (d *Dispatcher) AppointmentUpdated(ctx context.Context, appt Appointment) bool {
	params := appt.params()
	patient := d.Send(ctx, template.TypeAppointmentUpdated, appt.PatientID, params)
	doctor := d.Send(ctx, template.TypeAppointmentUpdatedDoctor, appt.DoctorID, params)
	return patient && doctor
}

// AppointmentCancelled notifies both parties about a cancellation.
func (d *Dispatcher) AppointmentCancelled(ctx context.Context, appt Appointment) bool {
	params := appt.params()
	patient := d.Send(ctx, template.TypeAppointmentCancelled, appt.PatientID, params)
	doctor := d.Send(ctx, template.TypeAppointmentCancelledDoc, appt.DoctorID, params)
	return patient && doctor
}

// AppointmentReminder sends the upcoming-appointment reminder to both
// parties at high priority.
func (d *Dispatcher) AppointmentReminder(ctx context.Context, appt Appointment) bool {
	params := appt.params()
	patient := d.Send(ctx, template.TypeAppointmentReminder, appt.PatientID, params,
		WithPriority(template.PriorityHigh))
	doctor := d.Send(ctx, template.TypeAppointmentReminderDoctor, appt.DoctorID, params,
		WithPriority(template.PriorityHigh))
	return patient && doctor
}

// MembershipExpiring warns a patient that a plan lapses soon. ExpiryDisplay
// is pre-formatted for the recipient.
func (d *Dispatcher) MembershipExpiring(ctx context.Context, userID uuid.UUID, planName, expiryDisplay string) bool {
	return d.Send(ctx, template.TypeMembershipExpiring, userID, template.Params{
		"PlanName":   planName,
		"ExpiryDate": expiryDisplay,
	})
}

// MembershipRenewed confirms a plan renewal.
func (d *Dispatcher) MembershipRenewed(ctx context.Context, userID uuid.UUID, planName, expiryDisplay string) bool {
	return d.Send(ctx, template.TypeMembershipRenewed, userID, template.Params{
		"PlanName":   planName,
		"ExpiryDate": expiryDisplay,
	})
}

// PaymentConfirmed confirms a received payment. Amount is pre-formatted
// with its currency symbol.
func (d *Dispatcher) PaymentConfirmed(ctx context.Context, userID uuid.UUID, amount string) bool {
	return d.Send(ctx, template.TypePaymentConfirmed, userID, template.Params{
		"Amount": amount,
	})
}

// Welcome greets a freshly registered user.
func (d *Dispatcher) Welcome(ctx context.Context, userID uuid.UUID, userName, clinicName string) bool {
	return d.Send(ctx, template.TypeWelcome, userID, template.Params{
		"UserName":   userName,
		"ClinicName": clinicName,
	})
}

// RemindAt schedules both reminder dispatches for delivery at the given time
// instead of sending immediately.
func (d *Dispatcher) RemindAt(ctx context.Context, appt Appointment, at time.Time) bool {
	params := appt.params()
	patient := d.Schedule(ctx, appt.PatientID, template.TypeAppointmentReminder, at, params,
		WithPriority(template.PriorityHigh))
	doctor := d.Schedule(ctx, appt.DoctorID, template.TypeAppointmentReminderDoctor, at, params,
		WithPriority(template.PriorityHigh))
	return patient && doctor
}
