package template

// Built-in catalog type keys. These mirror catalog.yaml; operators may add
// further types at runtime through the registry.
const (
	TypeNewAppointment            = "NEW_APPOINTMENT"
	TypeAppointmentConfirmed      = "APPOINTMENT_CONFIRMED"
	TypeAppointmentUpdated        = "APPOINTMENT_UPDATED"
	TypeAppointmentUpdatedDoctor  = "APPOINTMENT_UPDATED_DOCTOR"
	TypeAppointmentCancelled      = "APPOINTMENT_CANCELLED"
	TypeAppointmentCancelledDoc   = "APPOINTMENT_CANCELLED_DOCTOR"
	TypeAppointmentReminder       = "APPOINTMENT_REMINDER"
	TypeAppointmentReminderDoctor = "APPOINTMENT_REMINDER_DOCTOR"
	TypeMembershipExpiring        = "MEMBERSHIP_EXPIRING"
	TypeMembershipRenewed         = "MEMBERSHIP_RENEWED"
	TypePaymentConfirmed          = "PAYMENT_CONFIRMED"
	TypeWelcome                   = "WELCOME"
)
