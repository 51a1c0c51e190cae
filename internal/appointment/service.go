package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hackgods/consultation-scheduling/internal/ident"
	redisclient "github.com/hackgods/consultation-scheduling/internal/redis"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrIneligiblePatient   = errors.New("patient is not active")
	ErrIneligibleProvider  = errors.New("provider is not active")
	ErrPastDateRejected    = errors.New("appointments cannot be scheduled in the past")
	ErrSlotConflict        = errors.New("provider already has an appointment at this time")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrPastAppointmentLock = errors.New("past appointments cannot be cancelled")
	ErrReasonRequired      = errors.New("cancellation reason is required")
	ErrProviderBusy        = errors.New("provider schedule is being changed, please retry")
)

// Deps are the collaborators of a Service. Repo, Patients and Providers are
// required; the rest fall back to in-process defaults.
type Deps struct {
	Repo      Repository
	Patients  Directory
	Providers Directory
	IDs       ident.Sequence
	Locker    ProviderLocker
	Logger    *slog.Logger
}

// Service owns the appointment lifecycle: it validates and creates
// appointments, applies the complete and cancel transitions, and answers the
// schedule queries.
type Service struct {
	repo      Repository
	patients  Directory
	providers Directory
	ids       ident.Sequence
	locker    ProviderLocker
	logger    *slog.Logger

	Now            func() time.Time
	Location       *time.Location
	UpcomingWindow time.Duration
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:           d.Repo,
		patients:       d.Patients,
		providers:      d.Providers,
		ids:            d.IDs,
		locker:         d.Locker,
		logger:         d.Logger,
		Now:            time.Now,
		UpcomingWindow: DefaultUpcomingWindow,
	}
	if s.ids == nil {
		s.ids = ident.NewCounter(ident.KindAppointment)
	}
	if s.locker == nil {
		s.locker = NewLocalLocker()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Service) now() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return s.local(now)
}

// Clock is the service's current time in its location.
func (s *Service) Clock() time.Time { return s.now() }

func (s *Service) local(t time.Time) time.Time {
	if s.Location != nil {
		return t.In(s.Location)
	}
	return t
}

type ScheduleRequest struct {
	PatientID   string
	ProviderID  string
	ScheduledAt time.Time
	Notes       string
}

// Schedule creates a new appointment. The checks run in a fixed order and
// each one fails with its own error; a failed call leaves the store unchanged.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*Appointment, error) {
	patientID := ident.Normalize(req.PatientID)
	providerID := ident.Normalize(req.ProviderID)

	if err := checkID(ident.KindPatient, patientID, "patient"); err != nil {
		return nil, err
	}
	if err := checkID(ident.KindProvider, providerID, "provider"); err != nil {
		return nil, err
	}
	if req.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled time is required", ErrInvalidInput)
	}
	at := s.local(req.ScheduledAt).Truncate(time.Minute)

	if !s.patients.IsActive(patientID) {
		return nil, ErrIneligiblePatient
	}
	if !s.providers.IsActive(providerID) {
		return nil, ErrIneligibleProvider
	}

	now := s.now()
	if StartOfDay(at).Before(StartOfDay(now)) {
		return nil, ErrPastDateRejected
	}

	var created *Appointment

	err := s.locker.WithProviderLock(ctx, providerID, func(lockCtx context.Context) error {
		// Inside the critical section re-check the slot, nothing is cached
		taken, err := s.repo.HasScheduledAt(lockCtx, providerID, at)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return ErrSlotConflict
		}

		id, err := s.ids.Next(lockCtx)
		if err != nil {
			return fmt.Errorf("allocate appointment id: %w", err)
		}

		appt := Appointment{
			ID:          id,
			PatientID:   patientID,
			ProviderID:  providerID,
			ScheduledAt: at,
			Status:      StatusScheduled,
			Notes:       req.Notes,
			CreatedAt:   now,
		}
		if err := s.repo.Insert(lockCtx, appt); err != nil {
			if errors.Is(err, ErrSlotConflict) {
				return err
			}
			return fmt.Errorf("insert appointment: %w", err)
		}

		created = &appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"patient_id":   patientID,
			"provider_id":  providerID,
			"scheduled_at": at,
		})

		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrProviderBusy
		}
		return nil, err
	}

	s.logger.Info("appointment scheduled",
		slog.String("appointment_id", created.ID),
		slog.String("provider_id", providerID),
		slog.Time("scheduled_at", at),
	)
	return created, nil
}

// IsSlotFree reports whether the provider has no scheduled appointment at the
// exact minute of at. Completed and cancelled appointments do not occupy a slot.
func (s *Service) IsSlotFree(ctx context.Context, providerID string, at time.Time) (bool, error) {
	providerID = ident.Normalize(providerID)
	if err := checkID(ident.KindProvider, providerID, "provider"); err != nil {
		return false, err
	}
	if at.IsZero() {
		return false, fmt.Errorf("%w: time is required", ErrInvalidInput)
	}
	taken, err := s.repo.HasScheduledAt(ctx, providerID, s.local(at).Truncate(time.Minute))
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return !taken, nil
}

// AvailableProviders filters candidates down to the active providers whose
// slot at the given time is free, keeping the candidates' order.
func (s *Service) AvailableProviders(ctx context.Context, candidates []string, at time.Time) ([]string, error) {
	if at.IsZero() {
		return nil, fmt.Errorf("%w: time is required", ErrInvalidInput)
	}
	out := make([]string, 0, len(candidates))
	for _, id := range candidates {
		id = ident.Normalize(id)
		if err := checkID(ident.KindProvider, id, "provider"); err != nil {
			return nil, err
		}
		if !s.providers.IsActive(id) {
			continue
		}
		free, err := s.IsSlotFree(ctx, id, at)
		if err != nil {
			return nil, err
		}
		if free {
			out = append(out, id)
		}
	}
	return out, nil
}

// Complete moves a scheduled appointment to completed. Unlike cancellation it
// is not gated on the appointment date.
func (s *Service) Complete(ctx context.Context, id, notes string) (*Appointment, error) {
	return s.transition(ctx, id, EventAppointmentCompleted, func(a *Appointment, now time.Time) error {
		if a.Status != StatusScheduled {
			return ErrInvalidTransition
		}
		a.Status = StatusCompleted
		a.CompletedAt = &now
		a.CompletionNotes = notes
		return nil
	})
}

// Cancel moves a scheduled appointment dated today or later to cancelled.
func (s *Service) Cancel(ctx context.Context, id, reason string) (*Appointment, error) {
	return s.transition(ctx, id, EventAppointmentCancelled, func(a *Appointment, now time.Time) error {
		if a.Status != StatusScheduled {
			return ErrInvalidTransition
		}
		if !a.CanCancel(now) {
			return ErrPastAppointmentLock
		}
		if strings.TrimSpace(reason) == "" {
			return ErrReasonRequired
		}
		a.Status = StatusCancelled
		a.CancelledAt = &now
		a.CancelReason = strings.TrimSpace(reason)
		return nil
	})
}

func (s *Service) transition(ctx context.Context, id, event string, apply func(a *Appointment, now time.Time) error) (*Appointment, error) {
	id = ident.Normalize(id)
	if err := checkID(ident.KindAppointment, id, "appointment"); err != nil {
		return nil, err
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	var updated Appointment

	err = s.locker.WithProviderLock(ctx, appt.ProviderID, func(lockCtx context.Context) error {
		now := s.now()
		var err error
		updated, err = s.repo.Update(lockCtx, id, func(a *Appointment) error {
			return apply(a, now)
		})
		if err != nil {
			return err
		}

		payload := map[string]any{"status": updated.Status}
		if updated.CancelReason != "" {
			payload["reason"] = updated.CancelReason
		}
		s.logEvent(lockCtx, updated.ID, event, payload)
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrProviderBusy
		}
		return nil, err
	}

	s.logger.Info("appointment status changed",
		slog.String("appointment_id", updated.ID),
		slog.String("status", string(updated.Status)),
	)
	return &updated, nil
}

// UpdateNotes replaces the free-form notes. Notes stay editable in every state.
func (s *Service) UpdateNotes(ctx context.Context, id, notes string) (*Appointment, error) {
	id = ident.Normalize(id)
	if err := checkID(ident.KindAppointment, id, "appointment"); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, func(a *Appointment) error {
		a.Notes = notes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// checkID rejects a missing identifier, a malformed one and one of another kind.
func checkID(kind ident.Kind, id, what string) error {
	if id == "" {
		return fmt.Errorf("%w: %s id is required", ErrInvalidInput, what)
	}
	if !ident.Valid(kind, id) {
		return fmt.Errorf("%w: malformed %s id %q", ErrInvalidInput, what, id)
	}
	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID string, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal event payload", slog.String("event", eventType), slog.Any("error", err))
		data = nil
	}

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("failed to insert event log",
			slog.String("event", eventType),
			slog.String("appointment_id", appointmentID),
			slog.Any("error", err),
		)
	}
}

// GetAppointment looks an appointment up by id, ignoring case.
func (s *Service) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	id = ident.Normalize(id)
	if err := checkID(ident.KindAppointment, id, "appointment"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListAll(ctx)
}

// ListByDate returns the appointments on the calendar day of date.
func (s *Service) ListByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	return s.repo.ListScheduledIn(ctx, DayWindow(s.local(date)))
}

// ListPendingToday returns today's appointments that are still scheduled.
func (s *Service) ListPendingToday(ctx context.Context) ([]Appointment, error) {
	today, err := s.ListByDate(ctx, s.now())
	if err != nil {
		return nil, err
	}
	pending := make([]Appointment, 0, len(today))
	for _, a := range today {
		if a.Status == StatusScheduled {
			pending = append(pending, a)
		}
	}
	return pending, nil
}

// ListByPatient is the patient's history, most recent first.
func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, ident.Normalize(patientID))
}

// ListByProvider is the provider's agenda, optionally limited to one day.
func (s *Service) ListByProvider(ctx context.Context, providerID string, date *time.Time) ([]Appointment, error) {
	var w *Window
	if date != nil {
		day := DayWindow(s.local(*date))
		w = &day
	}
	return s.repo.ListByProvider(ctx, ident.Normalize(providerID), w)
}

func (s *Service) ListByStatus(ctx context.Context, status AppointmentStatus) ([]Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *Service) ListUpcoming(ctx context.Context) ([]Appointment, error) {
	now := s.now()
	window := s.UpcomingWindow
	if window <= 0 {
		window = DefaultUpcomingWindow
	}
	return s.repo.ListUpcoming(ctx, now, now.Add(window))
}

func (s *Service) ListOverdue(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListOverdue(ctx, s.now())
}

// ListCancelledBetween returns appointments cancelled on any day from start
// to end inclusive, most recent cancellation first.
func (s *Service) ListCancelledBetween(ctx context.Context, start, end time.Time) ([]Appointment, error) {
	return s.repo.ListCancelledIn(ctx, DaysWindow(s.local(start), s.local(end)))
}
