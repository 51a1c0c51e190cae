// Package report derives day statistics, day reports and cancellation reports
// from the schedule. Nothing here mutates an appointment.
package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hackgods/consultation-scheduling/internal/appointment"
)

// DefaultCancellationPeriod is the look-back used when a cancellation report
// has no start date.
const DefaultCancellationPeriod = 30 * 24 * time.Hour

var ErrInvalidRange = errors.New("report start is after its end")

// Source is the read side of the schedule the reports are built from.
type Source interface {
	ListByDate(ctx context.Context, date time.Time) ([]appointment.Appointment, error)
	ListCancelledBetween(ctx context.Context, start, end time.Time) ([]appointment.Appointment, error)
}

// Names resolves a participant id to a display name.
type Names interface {
	Name(id string) string
}

// Specialties resolves a provider id to a specialty label.
type Specialties interface {
	Specialty(id string) string
}

type Aggregator struct {
	source      Source
	patients    Names
	providers   Names
	specialties Specialties

	Now      func() time.Time
	Location *time.Location
}

// NewAggregator builds an Aggregator. When providers also implements
// Specialties the cancellation report shows each provider's specialty.
func NewAggregator(source Source, patients, providers Names) *Aggregator {
	a := &Aggregator{
		source:    source,
		patients:  patients,
		providers: providers,
		Now:       time.Now,
	}
	if sp, ok := providers.(Specialties); ok {
		a.specialties = sp
	}
	return a
}

func (a *Aggregator) now() time.Time {
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}
	if a.Location != nil {
		now = now.In(a.Location)
	}
	return now
}

func (a *Aggregator) day(date *time.Time) time.Time {
	if date == nil {
		return appointment.StartOfDay(a.now())
	}
	d := *date
	if a.Location != nil {
		d = d.In(a.Location)
	}
	return appointment.StartOfDay(d)
}

type DayStats struct {
	Date      time.Time `json:"date"`
	Total     int       `json:"total"`
	Scheduled int       `json:"scheduled"`
	Completed int       `json:"completed"`
	Cancelled int       `json:"cancelled"`
}

// Percentages are whole percents of the day's total.
type Percentages struct {
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Pending   int `json:"pending"`
	Occupancy int `json:"occupancy"`
}

type Line struct {
	AppointmentID string    `json:"appointment_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	PatientName   string    `json:"patient_name"`
	ProviderName  string    `json:"provider_name"`
	Reason        string    `json:"reason,omitempty"`
}

type ProviderBreakdown struct {
	ProviderName string `json:"provider_name"`
	Total        int    `json:"total"`
	Completed    int    `json:"completed"`
	Cancelled    int    `json:"cancelled"`
	Pending      int    `json:"pending"`
}

type DaySummary struct {
	Stats       DayStats            `json:"stats"`
	Percentages *Percentages        `json:"percentages,omitempty"`
	Completed   []Line              `json:"completed"`
	Cancelled   []Line              `json:"cancelled"`
	Pending     []Line              `json:"pending"`
	Providers   []ProviderBreakdown `json:"providers"`
	GeneratedAt time.Time           `json:"generated_at"`
}

type Cancellation struct {
	AppointmentID string    `json:"appointment_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	PatientName   string    `json:"patient_name"`
	ProviderName  string    `json:"provider_name"`
	Specialty     string    `json:"specialty,omitempty"`
	Reason        string    `json:"reason"`
	CancelledAt   time.Time `json:"cancelled_at"`
}

type CancellationSummary struct {
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Items       []Cancellation `json:"items"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// DayStatistics counts the appointments on date, today when date is nil.
func (a *Aggregator) DayStatistics(ctx context.Context, date *time.Time) (DayStats, error) {
	day := a.day(date)
	appts, err := a.source.ListByDate(ctx, day)
	if err != nil {
		return DayStats{}, fmt.Errorf("list appointments for %s: %w", day.Format("2006-01-02"), err)
	}
	return countDay(day, appts), nil
}

func countDay(day time.Time, appts []appointment.Appointment) DayStats {
	stats := DayStats{Date: day, Total: len(appts)}
	for _, ap := range appts {
		switch ap.Status {
		case appointment.StatusScheduled:
			stats.Scheduled++
		case appointment.StatusCompleted:
			stats.Completed++
		case appointment.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// DaySummary is the structured form of the day report.
func (a *Aggregator) DaySummary(ctx context.Context, date *time.Time) (DaySummary, error) {
	day := a.day(date)
	appts, err := a.source.ListByDate(ctx, day)
	if err != nil {
		return DaySummary{}, fmt.Errorf("list appointments for %s: %w", day.Format("2006-01-02"), err)
	}

	sum := DaySummary{
		Stats:       countDay(day, appts),
		Completed:   []Line{},
		Cancelled:   []Line{},
		Pending:     []Line{},
		Providers:   []ProviderBreakdown{},
		GeneratedAt: a.now(),
	}

	if t := sum.Stats.Total; t > 0 {
		sum.Percentages = &Percentages{
			Completed: percent(sum.Stats.Completed, t),
			Cancelled: percent(sum.Stats.Cancelled, t),
			Pending:   percent(sum.Stats.Scheduled, t),
			Occupancy: percent(sum.Stats.Completed+sum.Stats.Cancelled, t),
		}
	}

	byName := make(map[string]int)
	for _, ap := range appts {
		line := Line{
			AppointmentID: ap.ID,
			ScheduledAt:   ap.ScheduledAt,
			PatientName:   a.patients.Name(ap.PatientID),
			ProviderName:  a.providers.Name(ap.ProviderID),
		}

		idx, ok := byName[line.ProviderName]
		if !ok {
			idx = len(sum.Providers)
			byName[line.ProviderName] = idx
			sum.Providers = append(sum.Providers, ProviderBreakdown{ProviderName: line.ProviderName})
		}
		pb := &sum.Providers[idx]
		pb.Total++

		switch ap.Status {
		case appointment.StatusCompleted:
			pb.Completed++
			sum.Completed = append(sum.Completed, line)
		case appointment.StatusCancelled:
			pb.Cancelled++
			line.Reason = ap.CancelReason
			sum.Cancelled = append(sum.Cancelled, line)
		case appointment.StatusScheduled:
			pb.Pending++
			sum.Pending = append(sum.Pending, line)
		}
	}

	return sum, nil
}

// DayReport renders the day summary as text.
func (a *Aggregator) DayReport(ctx context.Context, date *time.Time) (string, error) {
	sum, err := a.DaySummary(ctx, date)
	if err != nil {
		return "", err
	}
	return RenderDay(sum), nil
}

// Cancellations lists the appointments cancelled between start and end
// (whole days, inclusive), latest cancellation first. A nil start means
// DefaultCancellationPeriod ago and a nil end means now.
func (a *Aggregator) Cancellations(ctx context.Context, start, end *time.Time) (CancellationSummary, error) {
	now := a.now()
	from := now.Add(-DefaultCancellationPeriod)
	if start != nil {
		from = *start
	}
	to := now
	if end != nil {
		to = *end
	}
	if appointment.StartOfDay(from).After(appointment.StartOfDay(to)) {
		return CancellationSummary{}, ErrInvalidRange
	}

	appts, err := a.source.ListCancelledBetween(ctx, from, to)
	if err != nil {
		return CancellationSummary{}, fmt.Errorf("list cancellations: %w", err)
	}

	out := CancellationSummary{Start: from, End: to, Items: make([]Cancellation, 0, len(appts)), GeneratedAt: now}
	for _, ap := range appts {
		c := Cancellation{
			AppointmentID: ap.ID,
			ScheduledAt:   ap.ScheduledAt,
			PatientName:   a.patients.Name(ap.PatientID),
			ProviderName:  a.providers.Name(ap.ProviderID),
			Reason:        ap.CancelReason,
		}
		if a.specialties != nil {
			c.Specialty = a.specialties.Specialty(ap.ProviderID)
		}
		if ap.CancelledAt != nil {
			c.CancelledAt = *ap.CancelledAt
		}
		out.Items = append(out.Items, c)
	}
	return out, nil
}

// CancellationReport renders Cancellations as text.
func (a *Aggregator) CancellationReport(ctx context.Context, start, end *time.Time) (string, error) {
	sum, err := a.Cancellations(ctx, start, end)
	if err != nil {
		return "", err
	}
	return RenderCancellations(sum), nil
}

func percent(part, total int) int {
	return int(math.Round(float64(part) * 100 / float64(total)))
}
