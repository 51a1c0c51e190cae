package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/consultation-scheduling/internal/appointment"
	"github.com/hackgods/consultation-scheduling/internal/participant"
)

type fixture struct {
	svc      *appointment.Service
	agg      *Aggregator
	dir      *participant.Directory
	now      time.Time
	patients []participant.Patient
	yara     participant.Provider
	walter   participant.Provider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		dir: participant.NewDirectory(),
		now: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	for _, name := range []string{"Ana", "Bruno", "Carla", "Davi"} {
		p, err := f.dir.AddPatient(ctx, participant.NewPatient{Name: name})
		require.NoError(t, err)
		f.patients = append(f.patients, p)
	}
	var err error
	f.yara, err = f.dir.AddProvider(ctx, participant.NewProvider{Name: "Dr. Yara", License: "1001", Specialty: participant.Cardiology})
	require.NoError(t, err)
	f.walter, err = f.dir.AddProvider(ctx, participant.NewProvider{Name: "Dr. Walter", License: "1002", Specialty: participant.Dermatology})
	require.NoError(t, err)

	f.svc = appointment.NewService(appointment.Deps{
		Repo:      appointment.NewMemoryRepository(),
		Patients:  f.dir.Patients(),
		Providers: f.dir.Providers(),
	})
	f.svc.Now = clock
	f.svc.Location = time.UTC

	f.agg = NewAggregator(f.svc, f.dir.Patients(), f.dir.Providers())
	f.agg.Now = clock
	f.agg.Location = time.UTC
	return f
}

func (f *fixture) book(t *testing.T, patient int, provider participant.Provider, hour int) *appointment.Appointment {
	t.Helper()
	a, err := f.svc.Schedule(context.Background(), appointment.ScheduleRequest{
		PatientID:   f.patients[patient].ID,
		ProviderID:  provider.ID,
		ScheduledAt: time.Date(2025, 3, 10, hour, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return a
}

// two completed, one cancelled, one pending
func (f *fixture) mixedDay(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	first := f.book(t, 0, f.yara, 9)
	second := f.book(t, 1, f.walter, 10)
	third := f.book(t, 2, f.yara, 11)
	f.book(t, 3, f.yara, 12)

	_, err := f.svc.Complete(ctx, first.ID, "ok")
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, second.ID, "")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, third.ID, "patient request")
	require.NoError(t, err)
}

func TestDayStatisticsCountsAddUp(t *testing.T) {
	f := newFixture(t)
	f.mixedDay(t)

	stats, err := f.agg.DayStatistics(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 1, stats.Scheduled)
	assert.Equal(t, stats.Total, stats.Scheduled+stats.Completed+stats.Cancelled)
}

func TestDaySummaryPercentagesAndGroups(t *testing.T) {
	f := newFixture(t)
	f.mixedDay(t)

	sum, err := f.agg.DaySummary(context.Background(), nil)
	require.NoError(t, err)

	require.NotNil(t, sum.Percentages)
	assert.Equal(t, 50, sum.Percentages.Completed)
	assert.Equal(t, 25, sum.Percentages.Cancelled)
	assert.Equal(t, 25, sum.Percentages.Pending)
	assert.Equal(t, 75, sum.Percentages.Occupancy)

	require.Len(t, sum.Completed, 2)
	assert.Equal(t, 9, sum.Completed[0].ScheduledAt.Hour())
	assert.Equal(t, 10, sum.Completed[1].ScheduledAt.Hour())

	require.Len(t, sum.Cancelled, 1)
	assert.Equal(t, "patient request", sum.Cancelled[0].Reason)
	assert.Equal(t, "Carla", sum.Cancelled[0].PatientName)

	require.Len(t, sum.Pending, 1)
	assert.Equal(t, "Davi", sum.Pending[0].PatientName)

	require.Len(t, sum.Providers, 2)
	assert.Equal(t, ProviderBreakdown{ProviderName: "Dr. Yara", Total: 3, Completed: 1, Cancelled: 1, Pending: 1}, sum.Providers[0])
	assert.Equal(t, ProviderBreakdown{ProviderName: "Dr. Walter", Total: 1, Completed: 1}, sum.Providers[1])
}

func TestDayReportText(t *testing.T) {
	f := newFixture(t)
	f.mixedDay(t)

	text, err := f.agg.DayReport(context.Background(), nil)
	require.NoError(t, err)

	assert.Contains(t, text, "CONSULTATION REPORT - 10/03/2025")
	assert.Contains(t, text, "Completed: 2 (50%)")
	assert.Contains(t, text, "Cancelled: 1 (25%)")
	assert.Contains(t, text, "Pending: 1 (25%)")
	assert.Contains(t, text, "[11:00] Dr. Yara - Carla")
	assert.Contains(t, text, "Reason: patient request")
	assert.Contains(t, text, "Dr. Walter")
}

func TestEmptyDayOmitsPercentages(t *testing.T) {
	f := newFixture(t)
	f.mixedDay(t)

	other := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	sum, err := f.agg.DaySummary(context.Background(), &other)
	require.NoError(t, err)
	assert.Zero(t, sum.Stats.Total)
	assert.Nil(t, sum.Percentages)
	assert.Empty(t, sum.Providers)

	text := RenderDay(sum)
	assert.Contains(t, text, "Total appointments: 0")
	assert.NotContains(t, text, "%")
}

func TestCancellationReportDefaultsToLastThirtyDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	early := f.book(t, 0, f.yara, 9)
	late := f.book(t, 1, f.walter, 10)

	_, err := f.svc.Cancel(ctx, early.ID, "sick")
	require.NoError(t, err)
	f.now = f.now.Add(30 * time.Minute)
	_, err = f.svc.Cancel(ctx, late.ID, "travel")
	require.NoError(t, err)

	sum, err := f.agg.Cancellations(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, sum.Items, 2)
	assert.Equal(t, late.ID, sum.Items[0].AppointmentID)
	assert.Equal(t, "Dermatology", sum.Items[0].Specialty)
	assert.Equal(t, early.ID, sum.Items[1].AppointmentID)
	assert.Equal(t, f.now.Add(-DefaultCancellationPeriod), sum.Start)

	text := RenderCancellations(sum)
	assert.Contains(t, text, "Total cancellations: 2")
	assert.Contains(t, text, "Provider: Dr. Walter (Dermatology)")
	assert.Contains(t, text, "Reason: travel")
}

func TestCancellationReportRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, 0, f.yara, 9)
	_, err := f.svc.Cancel(ctx, a.ID, "sick")
	require.NoError(t, err)

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	text, err := f.agg.CancellationReport(ctx, &start, &end)
	require.NoError(t, err)
	assert.Contains(t, text, "No cancellations in this period.")

	_, err = f.agg.CancellationReport(ctx, &end, &start)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
