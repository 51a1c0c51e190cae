package appointment

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus is where an appointment is in its lifecycle.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// DefaultUpcomingWindow is how far ahead a scheduled appointment counts as upcoming.
const DefaultUpcomingWindow = 2 * time.Hour

// Label is the display label used by every listing and report.
func (s AppointmentStatus) Label() string {
	switch s {
	case StatusScheduled:
		return "Scheduled"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the three known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves the status.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseStatus reads a status case-insensitively.
func ParseStatus(raw string) (AppointmentStatus, error) {
	s := AppointmentStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown appointment status %q", raw)
	}
	return s, nil
}

// Appointment is one booking of a patient with a provider at a minute.
// CancelledAt and CompletedAt are set only by the matching transition.
type Appointment struct {
	ID              string
	PatientID       string
	ProviderID      string
	ScheduledAt     time.Time
	Status          AppointmentStatus
	Notes           string
	CreatedAt       time.Time
	CancelledAt     *time.Time
	CancelReason    string
	CompletedAt     *time.Time
	CompletionNotes string
}

// IsUpcoming is true for a scheduled appointment due within (now, now+window].
func (a Appointment) IsUpcoming(now time.Time, window time.Duration) bool {
	if a.Status != StatusScheduled {
		return false
	}
	d := a.ScheduledAt.Sub(now)
	return d > 0 && d <= window
}

// IsOverdue is true for a scheduled appointment whose time has passed.
func (a Appointment) IsOverdue(now time.Time) bool {
	return a.Status == StatusScheduled && now.After(a.ScheduledAt)
}

// CanCancel mirrors the cancel guards that do not depend on the caller's input.
func (a Appointment) CanCancel(now time.Time) bool {
	if a.Status != StatusScheduled {
		return false
	}
	return !StartOfDay(a.ScheduledAt.In(now.Location())).Before(StartOfDay(now))
}

func (a Appointment) clone() Appointment {
	c := a
	if a.CancelledAt != nil {
		t := *a.CancelledAt
		c.CancelledAt = &t
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

// EventLog is one entry of the append-only event journal.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID string
	Payload       []byte
	CreatedAt     time.Time
}

// Window is the half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayWindow covers the calendar day of t in t's location.
func DayWindow(t time.Time) Window {
	start := StartOfDay(t)
	return Window{From: start, To: start.AddDate(0, 0, 1)}
}

// DaysWindow covers every calendar day from start's day to end's day inclusive.
func DaysWindow(start, end time.Time) Window {
	return Window{From: StartOfDay(start), To: StartOfDay(end).AddDate(0, 0, 1)}
}

// Summary renders a multi-line description of an appointment.
func Summary(a Appointment, patientName, providerName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s - %s\n", a.ID, a.ScheduledAt.Format("02/01/2006 15:04"), strings.ToUpper(a.Status.Label()))
	fmt.Fprintf(&b, "Patient: %s\n", patientName)
	fmt.Fprintf(&b, "Provider: %s\n", providerName)
	if strings.TrimSpace(a.Notes) != "" {
		fmt.Fprintf(&b, "Notes: %s\n", a.Notes)
	}
	switch a.Status {
	case StatusCancelled:
		if a.CancelledAt != nil {
			fmt.Fprintf(&b, "Cancelled at: %s\n", a.CancelledAt.Format("02/01/2006 15:04"))
		}
		fmt.Fprintf(&b, "Reason: %s\n", a.CancelReason)
	case StatusCompleted:
		if a.CompletedAt != nil {
			fmt.Fprintf(&b, "Completed at: %s\n", a.CompletedAt.Format("02/01/2006 15:04"))
		}
		if strings.TrimSpace(a.CompletionNotes) != "" {
			fmt.Fprintf(&b, "Visit notes: %s\n", a.CompletionNotes)
		}
	}
	return b.String()
}
