package appointment

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrDuplicateAppointment = errors.New("appointment id already exists")
)

// Repository is the schedule store. It is insert-only: appointments are never
// deleted, and every list it returns is a fresh copy the caller may reorder.
// Lists are ordered by scheduled time with ties in insertion order.
type Repository interface {
	Insert(ctx context.Context, a Appointment) error
	// Update loads the appointment, applies fn and persists the result as one
	// atomic step. If fn returns an error nothing is written.
	Update(ctx context.Context, id string, fn func(a *Appointment) error) (Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)

	// For conflict checks
	HasScheduledAt(ctx context.Context, providerID string, at time.Time) (bool, error)

	// Query surface, ascending by scheduled time unless stated otherwise
	ListAll(ctx context.Context) ([]Appointment, error)
	ListScheduledIn(ctx context.Context, w Window) ([]Appointment, error)
	// ListByPatient is ordered most recent first.
	ListByPatient(ctx context.Context, patientID string) ([]Appointment, error)
	// ListByProvider restricts to w when it is non-nil.
	ListByProvider(ctx context.Context, providerID string, w *Window) ([]Appointment, error)
	ListByStatus(ctx context.Context, status AppointmentStatus) ([]Appointment, error)
	// ListUpcoming returns scheduled appointments in (now, until].
	ListUpcoming(ctx context.Context, now, until time.Time) ([]Appointment, error)
	// ListOverdue returns scheduled appointments strictly before now.
	ListOverdue(ctx context.Context, now time.Time) ([]Appointment, error)
	// ListCancelledIn is ordered by cancellation time, most recent first.
	ListCancelledIn(ctx context.Context, w Window) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}

// Directory is the live view the core needs of one kind of participant.
// Unknown identifiers are reported as inactive.
type Directory interface {
	IsActive(id string) bool
	Name(id string) string
}
