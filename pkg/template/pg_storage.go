package template

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbook/notify/pkg/pg"
)

// PgStorage is the PostgreSQL implementation of the Storage interface,
// backed by the notification_templates table.
type PgStorage struct {
	pool *pgxpool.Pool
}

// NewPgStorage creates a Postgres-backed template registry.
func NewPgStorage(pool *pgxpool.Pool) *PgStorage {
	return &PgStorage{pool: pool}
}

const templateColumns = `id, type, subject, body, email_body, priority, role, requires_email, requires_in_app, active, created_at, updated_at`

func (s *PgStorage) Create(ctx context.Context, tpl *Template) error {
	if tpl == nil || tpl.Type == "" {
		return fmt.Errorf("%w: type key is required", ErrInvalidTemplate)
	}

	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	now := time.Now()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now
	if tpl.Priority == "" {
		tpl.Priority = PriorityNormal
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_templates (id, type, subject, body, email_body, priority, role, requires_email, requires_in_app, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		tpl.ID, tpl.Type, tpl.Subject, tpl.Body, tpl.EmailBody, tpl.Priority, tpl.Role,
		tpl.RequiresEmail, tpl.RequiresInApp, tpl.Active, tpl.CreatedAt, tpl.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrTemplateExists, tpl.Type)
		}
		return fmt.Errorf("failed to create template %q: %w", tpl.Type, err)
	}
	return nil
}

func (s *PgStorage) Update(ctx context.Context, tpl *Template) error {
	if tpl == nil || tpl.Type == "" {
		return fmt.Errorf("%w: type key is required", ErrInvalidTemplate)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE notification_templates
		SET subject = $2, body = $3, email_body = $4, priority = $5, role = $6,
		    requires_email = $7, requires_in_app = $8, active = $9, updated_at = now()
		WHERE type = $1`,
		tpl.Type, tpl.Subject, tpl.Body, tpl.EmailBody, tpl.Priority, tpl.Role,
		tpl.RequiresEmail, tpl.RequiresInApp, tpl.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update template %q: %w", tpl.Type, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (s *PgStorage) GetByType(ctx context.Context, typ string) (*Template, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM notification_templates
		WHERE type = $1 AND active = true`,
		typ,
	)

	var tpl Template
	if err := scanTemplate(row, &tpl); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template %q: %w", typ, err)
	}
	return &tpl, nil
}

func (s *PgStorage) GetByRole(ctx context.Context, role Role) ([]Template, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM notification_templates
		WHERE active = true AND (role = $1 OR role = $2)
		ORDER BY type`,
		role, RoleAll,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates for role %q: %w", role, err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var tpl Template
		if err := scanTemplate(rows, &tpl); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

func (s *PgStorage) ExistsByType(ctx context.Context, typ string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notification_templates WHERE type = $1)`, typ,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check template %q: %w", typ, err)
	}
	return exists, nil
}

func (s *PgStorage) SetActive(ctx context.Context, typ string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notification_templates SET active = $2, updated_at = now() WHERE type = $1`,
		typ, active,
	)
	if err != nil {
		return fmt.Errorf("failed to toggle template %q: %w", typ, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// scanner abstracts pgx.Row and pgx.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner, tpl *Template) error {
	return row.Scan(
		&tpl.ID, &tpl.Type, &tpl.Subject, &tpl.Body, &tpl.EmailBody,
		&tpl.Priority, &tpl.Role, &tpl.RequiresEmail, &tpl.RequiresInApp,
		&tpl.Active, &tpl.CreatedAt, &tpl.UpdatedAt,
	)
}
