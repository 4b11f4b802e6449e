package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbook/notify/pkg/pg"
)

// PgStorage is the PostgreSQL implementation of the Storage interface,
// backed by the notifications table.
type PgStorage struct {
	pool *pgxpool.Pool
}

// NewPgStorage creates a Postgres-backed notification storage.
func NewPgStorage(pool *pgxpool.Pool) *PgStorage {
	return &PgStorage{pool: pool}
}

const notificationColumns = `id, user_id, title, message, type, priority, read, read_at, created_at, appointment_id, doctor_id, related_type, related_id, action_url`

func (s *PgStorage) Create(ctx context.Context, notif *Notification) error {
	if notif == nil || notif.UserID == uuid.Nil {
		return fmt.Errorf("%w: user ID is required", ErrInvalidNotification)
	}

	if notif.ID == uuid.Nil {
		notif.ID = uuid.New()
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, priority, read, read_at, created_at, appointment_id, doctor_id, related_type, related_id, action_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		notif.ID, notif.UserID, notif.Title, notif.Message, notif.Type, notif.Priority,
		notif.Read, notif.ReadAt, notif.CreatedAt,
		notif.AppointmentID, notif.DoctorID, notif.RelatedType, notif.RelatedID, notif.ActionURL,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification for user %s: %w", notif.UserID, err)
	}
	return nil
}

func (s *PgStorage) Get(ctx context.Context, userID, notifID uuid.UUID) (*Notification, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE id = $1 AND user_id = $2`,
		notifID, userID,
	)

	var n Notification
	if err := scanNotification(row, &n); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification %s: %w", notifID, err)
	}
	return &n, nil
}

func (s *PgStorage) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	args := []any{userID}

	if opts.OnlyUnread {
		query += ` AND read = false`
	}
	if opts.Type != "" {
		args = append(args, opts.Type)
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if opts.Since != nil {
		args = append(args, *opts.Since)
		query += fmt.Sprintf(` AND created_at > $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC`
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
		return nil, fmt.Errorf("failed to list notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PgStorage) MarkRead(ctx context.Context, userID, notifID uuid.UUID) (bool, error) {
	// The read = false guard makes the transition idempotent: marking an
	// already-read notification is a no-op and never rewrites read_at.
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = true, read_at = now()
		WHERE id = $1 AND user_id = $2 AND read = false`,
		notifID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification %s read: %w", notifID, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Distinguish "already read" from "not found".
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)`,
		notifID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check notification %s: %w", notifID, err)
	}
	if !exists {
		return false, ErrNotificationNotFound
	}
	return false, nil
}

func (s *PgStorage) MarkManyRead(ctx context.Context, userID uuid.UUID, notifIDs ...uuid.UUID) (int, error) {
	if len(notifIDs) == 0 {
		return 0, nil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = true, read_at = now()
		WHERE user_id = $1 AND id = ANY($2) AND read = false`,
		userID, notifIDs,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read for user %s: %w", userID, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PgStorage) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = true, read_at = now()
		WHERE user_id = $1 AND read = false`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read for user %s: %w", userID, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PgStorage) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND read = false`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications for user %s: %w", userID, err)
	}
	return count, nil
}

func (s *PgStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE created_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications older than %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(row scanner, n *Notification) error {
	return row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Priority,
		&n.Read, &n.ReadAt, &n.CreatedAt,
		&n.AppointmentID, &n.DoctorID, &n.RelatedType, &n.RelatedID, &n.ActionURL,
	)
}
