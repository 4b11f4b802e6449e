// Package dispatch provides the notification dispatch orchestrator.
//
// A dispatch resolves the template for a notification type, resolves the
// recipient through the UserDirectory, renders subject and bodies, then fans
// out to the channels the template requires: an in-app feed entry, a durable
// email queue job, and always a history ledger entry describing what fired.
//
// Send reports success as a bool and never propagates errors; notification
// delivery must not fail the business operation that triggered it. Domain
// wrappers in events.go cover the booking platform's event surface.
package dispatch
