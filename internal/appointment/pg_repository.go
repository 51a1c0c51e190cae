package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/consultation-scheduling/internal/ident"
)

const (
	pgUniqueViolation = "23505"
	openSlotIndex     = "appointments_open_slot"
)

const appointmentColumns = `id, patient_id, provider_id, scheduled_at, status, notes, created_at,
	cancelled_at, cancel_reason, completed_at, completion_notes`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var cancelledAt, completedAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ProviderID,
		&a.ScheduledAt,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&cancelledAt,
		&a.CancelReason,
		&completedAt,
		&a.CompletionNotes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.CancelledAt = cancelledAt
	a.CompletedAt = completedAt
	return &a, nil
}

func (r *PgRepository) list(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Interface methods

func (r *PgRepository) Insert(ctx context.Context, a Appointment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, ident.Normalize(a.ID), a.PatientID, a.ProviderID, a.ScheduledAt, a.Status, a.Notes, a.CreatedAt,
		a.CancelledAt, a.CancelReason, a.CompletedAt, a.CompletionNotes)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if pgErr.ConstraintName == openSlotIndex {
				return ErrSlotConflict
			}
			return ErrDuplicateAppointment
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *PgRepository) Update(ctx context.Context, id string, fn func(a *Appointment) error) (Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Appointment{}, err
	}
	defer tx.Rollback(ctx)

	current, err := scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, ident.Normalize(id)))
	if err != nil {
		return Appointment{}, err
	}

	if err := fn(current); err != nil {
		return Appointment{}, err
	}

	updated, err := scanAppointment(tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    notes = $3,
		    cancelled_at = $4,
		    cancel_reason = $5,
		    completed_at = $6,
		    completion_notes = $7
		WHERE id = $1
		RETURNING `+appointmentColumns,
		current.ID, current.Status, current.Notes, current.CancelledAt, current.CancelReason,
		current.CompletedAt, current.CompletionNotes))
	if err != nil {
		return Appointment{}, fmt.Errorf("update appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Appointment{}, err
	}
	return *updated, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, ident.Normalize(id))
	return scanAppointment(row)
}

func (r *PgRepository) HasScheduledAt(ctx context.Context, providerID string, at time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE provider_id = $1 AND scheduled_at = $2 AND status = 'scheduled'
		)
	`, providerID, at).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check open slot: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) ListAll(ctx context.Context) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY scheduled_at, seq
	`)
}

func (r *PgRepository) ListScheduledIn(ctx context.Context, w Window) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE scheduled_at >= $1 AND scheduled_at < $2
		ORDER BY scheduled_at, seq
	`, w.From, w.To)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_at DESC, seq
	`, patientID)
}

func (r *PgRepository) ListByProvider(ctx context.Context, providerID string, w *Window) ([]Appointment, error) {
	if w == nil {
		return r.list(ctx, `
			SELECT `+appointmentColumns+`
			FROM appointments
			WHERE provider_id = $1
			ORDER BY scheduled_at, seq
		`, providerID)
	}
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
		ORDER BY scheduled_at, seq
	`, providerID, w.From, w.To)
}

func (r *PgRepository) ListByStatus(ctx context.Context, status AppointmentStatus) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = $1
		ORDER BY scheduled_at, seq
	`, status)
}

func (r *PgRepository) ListUpcoming(ctx context.Context, now, until time.Time) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'scheduled' AND scheduled_at > $1 AND scheduled_at <= $2
		ORDER BY scheduled_at, seq
	`, now, until)
}

func (r *PgRepository) ListOverdue(ctx context.Context, now time.Time) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'scheduled' AND scheduled_at < $1
		ORDER BY scheduled_at, seq
	`, now)
}

func (r *PgRepository) ListCancelledIn(ctx context.Context, w Window) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'cancelled'
		  AND cancelled_at IS NOT NULL
		  AND cancelled_at >= $1 AND cancelled_at < $2
		ORDER BY cancelled_at DESC, seq
	`, w.From, w.To)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, nullableString(ev.AppointmentID), ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
