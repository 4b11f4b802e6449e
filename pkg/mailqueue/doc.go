// Package mailqueue provides the durable email delivery queue.
//
// Jobs are persisted with a status lifecycle of pending -> sent | failed |
// cancelled, plus the manual failed -> pending reset. The queue Worker
// drains due pending jobs by priority rank (urgent, high, then normal/low)
// and scheduled time; the RetryWorker re-attempts failed jobs on a slower
// cadence until the attempt ceiling, after which the job is cancelled with
// a recorded reason.
//
// All storage transitions are conditional on the expected prior status, so
// a stale worker instance observes ErrInvalidTransition instead of
// overwriting state another actor already moved.
package mailqueue
