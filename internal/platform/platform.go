// Package platform adapts the booking platform's own tables (users,
// appointments) to the interfaces the notifier consumes. These tables are
// owned and migrated by the platform, not by this service.
package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbook/notify/pkg/dispatch"
	"github.com/clinicbook/notify/pkg/pg"
	"github.com/clinicbook/notify/pkg/reminder"
)

// UserDirectory resolves recipients from the platform's users table.
type UserDirectory struct {
	pool *pgxpool.Pool
}

// NewUserDirectory creates a directory over the shared users table.
func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

func (d *UserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*dispatch.User, error) {
	var u dispatch.User
	err := d.pool.QueryRow(ctx,
		`SELECT id, email, name FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, dispatch.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user %s: %w", id, err)
	}
	return &u, nil
}

// AppointmentStore projects upcoming appointments for the reminder scheduler.
type AppointmentStore struct {
	pool *pgxpool.Pool
}

// NewAppointmentStore creates a store over the shared appointments table.
func NewAppointmentStore(pool *pgxpool.Pool) *AppointmentStore {
	return &AppointmentStore{pool: pool}
}

func (s *AppointmentStore) Upcoming(ctx context.Context, from, to time.Time) ([]reminder.Appointment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, p.name, d.name, a.date
		FROM appointments a
		JOIN users p ON p.id = a.patient_id
		JOIN users d ON d.id = a.doctor_id
		WHERE a.status = 'pending' AND a.date >= $1 AND a.date < $2
		ORDER BY a.date ASC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming appointments: %w", err)
	}
	defer rows.Close()

	var out []reminder.Appointment
	for rows.Next() {
		var a reminder.Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.PatientName, &a.DoctorName, &a.Date); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
