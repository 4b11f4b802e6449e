package mailqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbook/notify/pkg/pg"
)

// PgStorage is the PostgreSQL implementation of the Storage interface,
// backed by the mail_queue table.
type PgStorage struct {
	pool *pgxpool.Pool
}

// NewPgStorage creates a Postgres-backed mail queue storage.
func NewPgStorage(pool *pgxpool.Pool) *PgStorage {
	return &PgStorage{pool: pool}
}

const jobColumns = `id, template_id, user_id, email, subject, body, email_body, status, priority, type, scheduled_at, sent_at, created_at, retry_count, error_message, metadata`

func (s *PgStorage) Enqueue(ctx context.Context, job *Job) error {
	if job == nil || job.UserID == uuid.Nil || job.Email == "" {
		return fmt.Errorf("%w: user ID and email are required", ErrInvalidJob)
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.ScheduledAt.IsZero() {
		job.ScheduledAt = now
	}
	job.Status = StatusPending

	_, err := s.pool.Exec(ctx, `
		INSERT INTO mail_queue (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		job.ID, job.TemplateID, job.UserID, job.Email, job.Subject, job.Body, job.EmailBody,
		job.Status, job.Priority, job.Type,
		job.ScheduledAt, job.SentAt, job.CreatedAt,
		job.RetryCount, job.ErrorMessage, job.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue job for %s: %w", job.Email, err)
	}
	return nil
}

func (s *PgStorage) Get(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM mail_queue WHERE id = $1`, jobID,
	)

	var job Job
	if err := scanJob(row, &job); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	return &job, nil
}

func (s *PgStorage) GetPending(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	// Urgent drains before high, which drains before normal/low; within a
	// rank the oldest scheduled time wins.
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM mail_queue
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY CASE priority
			WHEN 'urgent' THEN 1
			WHEN 'high' THEN 2
			ELSE 3
		END ASC, scheduled_at ASC
		LIMIT $3`,
		StatusPending, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

func (s *PgStorage) GetRetryable(ctx context.Context, maxAttempts, limit int) ([]Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM mail_queue
		WHERE status = $1 AND retry_count < $2
		ORDER BY created_at ASC
		LIMIT $3`,
		StatusFailed, maxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get retryable jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

func (s *PgStorage) MarkSent(ctx context.Context, jobID uuid.UUID, sentAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE mail_queue SET status = $1, sent_at = $2, error_message = ''
		WHERE id = $3 AND status = $4`,
		StatusSent, sentAt, jobID, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job %s sent: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionConflict(ctx, jobID, StatusSent)
	}
	return nil
}

func (s *PgStorage) MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string) (int, error) {
	var retryCount int
	err := s.pool.QueryRow(ctx, `
		UPDATE mail_queue
		SET status = $1, retry_count = retry_count + 1, error_message = $2
		WHERE id = $3 AND status = $4
		RETURNING retry_count`,
		StatusFailed, errMsg, jobID, StatusPending,
	).Scan(&retryCount)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, s.transitionConflict(ctx, jobID, StatusFailed)
		}
		return 0, fmt.Errorf("failed to mark job %s failed: %w", jobID, err)
	}
	return retryCount, nil
}

func (s *PgStorage) Retry(ctx context.Context, jobID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE mail_queue SET status = $1, error_message = ''
		WHERE id = $2 AND status = $3`,
		StatusPending, jobID, StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to retry job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionConflict(ctx, jobID, StatusPending)
	}
	return nil
}

func (s *PgStorage) Cancel(ctx context.Context, jobID uuid.UUID, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE mail_queue SET status = $1, error_message = $2
		WHERE id = $3 AND status IN ($4, $5)`,
		StatusCancelled, reason, jobID, StatusPending, StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionConflict(ctx, jobID, StatusCancelled)
	}
	return nil
}

func (s *PgStorage) List(ctx context.Context, status Status, limit, offset int) ([]Job, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	query := `SELECT ` + jobColumns + ` FROM mail_queue`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += ` WHERE status = $1`
	}

	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

func (s *PgStorage) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, count(*) FROM mail_queue GROUP BY status`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (s *PgStorage) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM mail_queue
		WHERE status IN ($1, $2) AND created_at < $3`,
		StatusSent, StatusCancelled, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete terminal jobs older than %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}

// transitionConflict distinguishes a missing job from one that is not in the
// state the conditional update expected.
func (s *PgStorage) transitionConflict(ctx context.Context, jobID uuid.UUID, target Status) error {
	var current Status
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM mail_queue WHERE id = $1`, jobID,
	).Scan(&current)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return ErrJobNotFound
		}
		return fmt.Errorf("failed to check job %s: %w", jobID, err)
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner, job *Job) error {
	return row.Scan(
		&job.ID, &job.TemplateID, &job.UserID, &job.Email, &job.Subject, &job.Body, &job.EmailBody,
		&job.Status, &job.Priority, &job.Type,
		&job.ScheduledAt, &job.SentAt, &job.CreatedAt,
		&job.RetryCount, &job.ErrorMessage, &job.Metadata,
	)
}

func collectJobs(rows interface {
	scanner
	Next() bool
	Err() error
}) ([]Job, error) {
	var out []Job
	for rows.Next() {
		var job Job
		if err := scanJob(rows, &job); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}
