package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStorage is the PostgreSQL implementation of the Storage interface,
// backed by the notification_history table.
type PgStorage struct {
	pool *pgxpool.Pool
}

// NewPgStorage creates a Postgres-backed history storage.
func NewPgStorage(pool *pgxpool.Pool) *PgStorage {
	return &PgStorage{pool: pool}
}

const entryColumns = `id, user_id, template_id, subject, body, email_body, type, method, status, error_message, sent_at, read_at, appointment_id, doctor_id, related_type, related_id`

func (s *PgStorage) Append(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.UserID == uuid.Nil {
		return fmt.Errorf("%w: user ID is required", ErrInvalidEntry)
	}
	if !entry.Method.Valid() {
		return fmt.Errorf("%w: unknown delivery method %q", ErrInvalidEntry, entry.Method)
	}
	if entry.Status == "" {
		entry.Status = StatusSent
	}
	if !entry.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEntry, entry.Status)
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_history (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		entry.ID, entry.UserID, entry.TemplateID, entry.Subject, entry.Body, entry.EmailBody,
		entry.Type, entry.Method, entry.Status, entry.ErrorMessage, entry.SentAt, entry.ReadAt,
		entry.AppointmentID, entry.DoctorID, entry.RelatedType, entry.RelatedID,
	)
	if err != nil {
		return fmt.Errorf("failed to append history entry for user %s: %w", entry.UserID, err)
	}
	return nil
}

func (s *PgStorage) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM notification_history WHERE true`
	args := []any{}

	if opts.UserID != uuid.Nil {
		args = append(args, opts.UserID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	if opts.Type != "" {
		args = append(args, opts.Type)
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if !opts.From.IsZero() {
		args = append(args, opts.From)
		query += fmt.Sprintf(` AND sent_at >= $%d`, len(args))
	}
	if !opts.To.IsZero() {
		args = append(args, opts.To)
		query += fmt.Sprintf(` AND sent_at <= $%d`, len(args))
	}

	query += ` ORDER BY sent_at DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.TemplateID, &e.Subject, &e.Body, &e.EmailBody,
			&e.Type, &e.Method, &e.Status, &e.ErrorMessage, &e.SentAt, &e.ReadAt,
			&e.AppointmentID, &e.DoctorID, &e.RelatedType, &e.RelatedID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PgStorage) CountByType(ctx context.Context, from, to time.Time) (map[string]int, error) {
	query := `SELECT type, count(*) FROM notification_history WHERE true`
	args := []any{}

	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(` AND sent_at >= $%d`, len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(` AND sent_at <= $%d`, len(args))
	}
	query += ` GROUP BY type`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count history by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		counts[typ] = count
	}
	return counts, rows.Err()
}

func (s *PgStorage) SyncReadAt(ctx context.Context, userID uuid.UUID, notifType string, readAt time.Time) (int, error) {
	query := `UPDATE notification_history SET read_at = $1 WHERE user_id = $2 AND read_at IS NULL`
	args := []any{readAt, userID}
	if notifType != "" {
		args = append(args, notifType)
		query += ` AND type = $3`
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to sync read time for user %s: %w", userID, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PgStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notification_history WHERE sent_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete history older than %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}
