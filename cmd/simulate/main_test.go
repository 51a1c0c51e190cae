package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hackgods/consultation-scheduling/internal/api"
	"github.com/hackgods/consultation-scheduling/internal/config"
)

func TestFindDoubleBookings(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	appts := []api.AppointmentResponse{
		{ID: "CON-001", ProviderID: "MED-001", ScheduledAt: at, Status: "scheduled"},
		{ID: "CON-002", ProviderID: "MED-001", ScheduledAt: at, Status: "cancelled"},
		{ID: "CON-003", ProviderID: "MED-002", ScheduledAt: at, Status: "scheduled"},
		{ID: "CON-004", ProviderID: "MED-001", ScheduledAt: at.Add(30 * time.Minute), Status: "scheduled"},
	}
	assert.Empty(t, findDoubleBookings(appts))

	appts = append(appts, api.AppointmentResponse{ID: "CON-005", ProviderID: "MED-001", ScheduledAt: at, Status: "scheduled"})
	assert.Equal(t, []string{"CON-001/CON-005"}, findDoubleBookings(appts))
}

func TestOperationMetricsStats(t *testing.T) {
	var om OperationMetrics
	for i := 1; i <= 20; i++ {
		om.Record(time.Duration(i)*time.Millisecond, i%2 == 0, i%5 == 0)
	}

	avg, min, max, p50, p95 := om.Stats()
	assert.Equal(t, int64(20), om.Total)
	assert.Equal(t, int64(10), om.Success)
	assert.Equal(t, int64(2), om.Conflict)
	assert.Equal(t, int64(8), om.Error)
	assert.Equal(t, time.Millisecond, min)
	assert.Equal(t, 20*time.Millisecond, max)
	assert.Equal(t, 10500*time.Microsecond, avg)
	assert.Equal(t, 11*time.Millisecond, p50)
	assert.Equal(t, 20*time.Millisecond, p95)
}

func TestLoadConfigNormalizesRatios(t *testing.T) {
	t.Setenv("SIM_BOOKING_RATIO", "2")
	t.Setenv("SIM_CANCEL_RATIO", "1")
	t.Setenv("SIM_COMPLETE_RATIO", "1")
	t.Setenv("SIM_READ_RATIO", "0")

	cfg := loadConfig(config.Config{Location: time.UTC})
	assert.InDelta(t, 0.5, cfg.BookingRatio, 1e-9)
	assert.InDelta(t, 0.25, cfg.CancelRatio, 1e-9)
	assert.InDelta(t, 0.0, cfg.ReadRatio, 1e-9)
}
