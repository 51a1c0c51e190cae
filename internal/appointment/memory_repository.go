package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hackgods/consultation-scheduling/internal/ident"
)

// MemoryRepository is a volatile Repository. Appointments are kept in
// insertion order so stable sorts break ties the way callers expect.
type MemoryRepository struct {
	mu     sync.RWMutex
	items  []Appointment
	index  map[string]int
	events []EventLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{index: make(map[string]int)}
}

func (r *MemoryRepository) Insert(_ context.Context, a Appointment) error {
	key := ident.Normalize(a.ID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[key]; ok {
		return ErrDuplicateAppointment
	}
	r.index[key] = len(r.items)
	r.items = append(r.items, a.clone())
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, fn func(a *Appointment) error) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[ident.Normalize(id)]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}

	working := r.items[i].clone()
	if err := fn(&working); err != nil {
		return Appointment{}, err
	}
	r.items[i] = working
	return working.clone(), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[ident.Normalize(id)]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a := r.items[i].clone()
	return &a, nil
}

func (r *MemoryRepository) HasScheduledAt(_ context.Context, providerID string, at time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		if a.ProviderID == providerID && a.Status == StatusScheduled && a.ScheduledAt.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]Appointment, error) {
	return r.filter(func(Appointment) bool { return true }, byScheduledAsc), nil
}

func (r *MemoryRepository) ListScheduledIn(_ context.Context, w Window) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool { return w.Contains(a.ScheduledAt) }, byScheduledAsc), nil
}

func (r *MemoryRepository) ListByPatient(_ context.Context, patientID string) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool { return a.PatientID == patientID }, byScheduledDesc), nil
}

func (r *MemoryRepository) ListByProvider(_ context.Context, providerID string, w *Window) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool {
		if a.ProviderID != providerID {
			return false
		}
		return w == nil || w.Contains(a.ScheduledAt)
	}, byScheduledAsc), nil
}

func (r *MemoryRepository) ListByStatus(_ context.Context, status AppointmentStatus) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool { return a.Status == status }, byScheduledAsc), nil
}

func (r *MemoryRepository) ListUpcoming(_ context.Context, now, until time.Time) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool {
		return a.Status == StatusScheduled && a.ScheduledAt.After(now) && !a.ScheduledAt.After(until)
	}, byScheduledAsc), nil
}

func (r *MemoryRepository) ListOverdue(_ context.Context, now time.Time) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool { return a.IsOverdue(now) }, byScheduledAsc), nil
}

func (r *MemoryRepository) ListCancelledIn(_ context.Context, w Window) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool {
		return a.Status == StatusCancelled && a.CancelledAt != nil && w.Contains(*a.CancelledAt)
	}, byCancelledDesc), nil
}

func (r *MemoryRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Events returns the journal in append order.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}

// Len is the number of appointments ever stored.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

type lessFunc func(a, b Appointment) bool

func byScheduledAsc(a, b Appointment) bool { return a.ScheduledAt.Before(b.ScheduledAt) }

func byScheduledDesc(a, b Appointment) bool { return a.ScheduledAt.After(b.ScheduledAt) }

func byCancelledDesc(a, b Appointment) bool { return a.CancelledAt.After(*b.CancelledAt) }

func (r *MemoryRepository) filter(keep func(Appointment) bool, less lessFunc) []Appointment {
	r.mu.RLock()
	out := make([]Appointment, 0)
	for _, a := range r.items {
		if keep(a) {
			out = append(out, a.clone())
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
