package mailqueue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage persists email delivery jobs. Implementations must keep status
// transitions conditional on the expected prior status so a stale worker
// cannot clobber a job another actor already moved.
type Storage interface {
	// Enqueue persists a new pending job. A zero ScheduledAt means "due now".
	Enqueue(ctx context.Context, job *Job) error

	// Get returns a job by ID or ErrJobNotFound.
	Get(ctx context.Context, jobID uuid.UUID) (*Job, error)

	// GetPending returns pending jobs whose scheduled time is at or before
	// now, ordered by priority rank ascending then scheduled time ascending,
	// capped at limit.
	GetPending(ctx context.Context, now time.Time, limit int) ([]Job, error)

	// GetRetryable returns failed jobs with a retry count below maxAttempts,
	// oldest first, capped at limit.
	GetRetryable(ctx context.Context, maxAttempts, limit int) ([]Job, error)

	// MarkSent moves a pending job to sent and stamps SentAt. Returns
	// ErrInvalidTransition when the job is no longer pending.
	MarkSent(ctx context.Context, jobID uuid.UUID, sentAt time.Time) error

	// MarkFailed moves a pending job to failed, records the error message
	// and increments the retry count, returning the new count. Returns
	// ErrInvalidTransition when the job is no longer pending.
	MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string) (int, error)

	// Retry moves a failed job back to pending for another delivery attempt.
	// Returns ErrInvalidTransition when the job is not failed.
	Retry(ctx context.Context, jobID uuid.UUID) error

	// Cancel moves a pending or failed job to cancelled with the given
	// reason. Returns ErrInvalidTransition when the job is already terminal.
	Cancel(ctx context.Context, jobID uuid.UUID, reason string) error

	// List returns jobs filtered by status (empty status means all), newest
	// first, with limit/offset pagination.
	List(ctx context.Context, status Status, limit, offset int) ([]Job, error)

	// CountByStatus returns the number of jobs per status.
	CountByStatus(ctx context.Context) (map[Status]int, error)

	// DeleteTerminalOlderThan removes sent and cancelled jobs created before
	// the cutoff and returns how many were removed.
	DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
