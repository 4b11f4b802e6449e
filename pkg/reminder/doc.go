// Package reminder schedules upcoming-appointment reminders.
//
// The Scheduler scans an AppointmentStore on a fixed cadence and dispatches
// high-priority reminders for appointments entering each lookahead band
// (one hour and thirty minutes before start by default). Suppression of
// duplicates is approximate by band geometry rather than tracked state.
package reminder
