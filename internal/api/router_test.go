package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/consultation-scheduling/internal/appointment"
	"github.com/hackgods/consultation-scheduling/internal/participant"
	"github.com/hackgods/consultation-scheduling/internal/report"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type testServer struct {
	srv   *httptest.Server
	dir   *participant.Directory
	clock *fakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		dir:   participant.NewDirectory(),
		clock: &fakeClock{t: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)},
	}
	clock := ts.clock.Now

	svc := appointment.NewService(appointment.Deps{
		Repo:      appointment.NewMemoryRepository(),
		Patients:  ts.dir.Patients(),
		Providers: ts.dir.Providers(),
	})
	svc.Now = clock
	svc.Location = time.UTC

	agg := report.NewAggregator(svc, ts.dir.Patients(), ts.dir.Providers())
	agg.Now = clock
	agg.Location = time.UTC

	router := NewRouter(RouterConfig{
		Service:      svc,
		Reports:      agg,
		Participants: ts.dir,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Location:     time.UTC,
		Env:          "test",
		Version:      "v0.0.0",
	})
	ts.srv = httptest.NewServer(router)
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (ts *testServer) seedParticipants(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, name := range []string{"Ana", "Bruno"} {
		_, err := ts.dir.AddPatient(ctx, participant.NewPatient{Name: name})
		require.NoError(t, err)
	}
	_, err := ts.dir.AddProvider(ctx, participant.NewProvider{Name: "Dr. Yara", License: "1001", Specialty: participant.Cardiology})
	require.NoError(t, err)
	_, err = ts.dir.AddProvider(ctx, participant.NewProvider{Name: "Dr. Walter", License: "1002"})
	require.NoError(t, err)
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestAppointmentLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.seedParticipants(t)

	resp, body := ts.do(t, http.MethodPost, "/appointments", CreateAppointmentRequest{
		PatientID: "PAC-001", ProviderID: "MED-001", ScheduledAt: "2025-03-10T09:00", Notes: "first visit",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[AppointmentResponse](t, body)
	assert.Equal(t, "CON-001", created.ID)
	assert.Equal(t, "scheduled", created.Status)
	assert.True(t, created.Upcoming)

	resp, body = ts.do(t, http.MethodPost, "/appointments", CreateAppointmentRequest{
		PatientID: "PAC-002", ProviderID: "med-001", ScheduledAt: "2025-03-10T09:00:00Z",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "slot_conflict", decode[ErrorResponse](t, body).Error)

	resp, body = ts.do(t, http.MethodGet, "/slots/free?provider_id=MED-001&at=2025-03-10T09:00", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[SlotResponse](t, body).Free)

	resp, body = ts.do(t, http.MethodPost, "/appointments/con-001/cancel", CancelAppointmentRequest{Reason: "patient request"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	cancelled := decode[AppointmentResponse](t, body)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "patient request", cancelled.CancelReason)

	resp, _ = ts.do(t, http.MethodPost, "/appointments", CreateAppointmentRequest{
		PatientID: "PAC-002", ProviderID: "MED-001", ScheduledAt: "2025-03-10T09:00",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = ts.do(t, http.MethodPost, "/appointments/CON-001/complete", CompleteAppointmentRequest{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", decode[ErrorResponse](t, body).Error)
}

func TestScheduleErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	ts.seedParticipants(t)
	_, err := ts.dir.SetProviderActive("MED-002", false)
	require.NoError(t, err)

	cases := []struct {
		name   string
		req    CreateAppointmentRequest
		status int
		code   string
	}{
		{"bad time", CreateAppointmentRequest{PatientID: "PAC-001", ProviderID: "MED-001", ScheduledAt: "tomorrow"}, http.StatusBadRequest, "invalid_scheduled_at"},
		{"missing patient", CreateAppointmentRequest{ProviderID: "MED-001", ScheduledAt: "2025-03-10T09:00"}, http.StatusBadRequest, "invalid_input"},
		{"malformed patient", CreateAppointmentRequest{PatientID: "not an id!", ProviderID: "MED-001", ScheduledAt: "2025-03-10T09:00"}, http.StatusBadRequest, "invalid_input"},
		{"patient id as provider", CreateAppointmentRequest{PatientID: "PAC-001", ProviderID: "PAC-002", ScheduledAt: "2025-03-10T09:00"}, http.StatusBadRequest, "invalid_input"},
		{"unknown patient", CreateAppointmentRequest{PatientID: "PAC-404", ProviderID: "MED-001", ScheduledAt: "2025-03-10T09:00"}, http.StatusUnprocessableEntity, "ineligible_patient"},
		{"inactive provider", CreateAppointmentRequest{PatientID: "PAC-001", ProviderID: "MED-002", ScheduledAt: "2025-03-10T09:00"}, http.StatusUnprocessableEntity, "ineligible_provider"},
		{"yesterday", CreateAppointmentRequest{PatientID: "PAC-001", ProviderID: "MED-001", ScheduledAt: "2025-03-09T09:00"}, http.StatusUnprocessableEntity, "past_date_rejected"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := ts.do(t, http.MethodPost, "/appointments", tc.req)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decode[ErrorResponse](t, body).Error)
		})
	}
}

func TestCancelErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	ts.seedParticipants(t)

	resp, _ := ts.do(t, http.MethodPost, "/appointments", CreateAppointmentRequest{PatientID: "PAC-001", ProviderID: "MED-001", ScheduledAt: "2025-03-10T09:00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := ts.do(t, http.MethodPost, "/appointments/CON-001/cancel", CancelAppointmentRequest{Reason: " "})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "reason_required", decode[ErrorResponse](t, body).Error)

	resp, body = ts.do(t, http.MethodPost, "/appointments/CON-404/cancel", CancelAppointmentRequest{Reason: "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "appointment_not_found", decode[ErrorResponse](t, body).Error)

	resp, body = ts.do(t, http.MethodPost, "/appointments/garbage/cancel", CancelAppointmentRequest{Reason: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", decode[ErrorResponse](t, body).Error)

	ts.clock.Advance(24 * time.Hour)
	resp, body = ts.do(t, http.MethodPost, "/appointments/CON-001/cancel", CancelAppointmentRequest{Reason: "x"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "past_appointment_lock", decode[ErrorResponse](t, body).Error)

	resp, body = ts.do(t, http.MethodGet, "/appointments/overdue", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	overdue := decode[AppointmentListResponse](t, body)
	require.Equal(t, 1, overdue.Count)
	assert.True(t, overdue.Items[0].Overdue)
}

func TestListFiltersAndSummaryText(t *testing.T) {
	ts := newTestServer(t)
	ts.seedParticipants(t)

	for _, req := range []CreateAppointmentRequest{
		{PatientID: "PAC-001", ProviderID: "MED-001", ScheduledAt: "2025-03-11T10:00"},
		{PatientID: "PAC-001", ProviderID: "MED-002", ScheduledAt: "2025-03-10T09:00"},
		{PatientID: "PAC-002", ProviderID: "MED-001", ScheduledAt: "2025-03-10T11:00"},
	} {
		resp, body := ts.do(t, http.MethodPost, "/appointments", req)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	_, body := ts.do(t, http.MethodGet, "/appointments?date=2025-03-10", nil)
	assert.Equal(t, 2, decode[AppointmentListResponse](t, body).Count)

	_, body = ts.do(t, http.MethodGet, "/appointments?patient_id=pac-001", nil)
	history := decode[AppointmentListResponse](t, body)
	require.Equal(t, 2, history.Count)
	assert.Equal(t, "CON-001", history.Items[0].ID)

	_, body = ts.do(t, http.MethodGet, "/providers/MED-001/appointments?date=2025-03-10", nil)
	assert.Equal(t, 1, decode[AppointmentListResponse](t, body).Count)

	resp, _ := ts.do(t, http.MethodGet, "/appointments?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, "/appointments/CON-002?format=text", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "[CON-002] 10/03/2025 09:00 - SCHEDULED")
	assert.Contains(t, string(body), "Provider: Dr. Walter")

	_, body = ts.do(t, http.MethodGet, "/providers/available?at=2025-03-10T09:00", nil)
	avail := decode[AvailableProvidersResponse](t, body)
	require.Len(t, avail.Providers, 1)
	assert.Equal(t, "MED-001", avail.Providers[0].ID)
	assert.Equal(t, "Cardiology", avail.Providers[0].SpecialtyLabel)
}

func TestReportsOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.seedParticipants(t)

	for _, at := range []string{"2025-03-10T09:00", "2025-03-10T10:00"} {
		resp, _ := ts.do(t, http.MethodPost, "/appointments", CreateAppointmentRequest{PatientID: "PAC-001", ProviderID: "MED-001", ScheduledAt: at})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp, _ := ts.do(t, http.MethodPost, "/appointments/CON-001/cancel", CancelAppointmentRequest{Reason: "sick"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := ts.do(t, http.MethodGet, "/reports/day/stats?date=2025-03-10", nil)
	stats := decode[report.DayStats](t, body)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Cancelled)

	resp, body = ts.do(t, http.MethodGet, "/reports/day", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, string(body), "Cancelled: 1 (50%)")

	_, body = ts.do(t, http.MethodGet, "/reports/cancellations?format=json", nil)
	canc := decode[report.CancellationSummary](t, body)
	require.Len(t, canc.Items, 1)
	assert.Equal(t, "sick", canc.Items[0].Reason)

	resp, body = ts.do(t, http.MethodGet, "/reports/cancellations?start=2025-03-10&end=2025-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_range", decode[ErrorResponse](t, body).Error)
}

func TestParticipantEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/providers", CreateProviderRequest{Name: "Dr. Yara", License: "1001", Specialty: "Pediatrics"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	prov := decode[ProviderResponse](t, body)
	assert.Equal(t, "MED-001", prov.ID)
	assert.Equal(t, "pediatrics", prov.Specialty)

	resp, _ = ts.do(t, http.MethodPost, "/providers", CreateProviderRequest{Name: "Dr. Copy", License: "1001"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/providers", CreateProviderRequest{Name: "Dr. Who", License: "2", Specialty: "time travel"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(t, http.MethodPost, "/patients", CreatePatientRequest{Name: "Ana", Email: "ana@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "PAC-001", decode[PatientResponse](t, body).ID)

	resp, body = ts.do(t, http.MethodPost, "/patients/pac-001/deactivate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[PatientResponse](t, body).Active)

	resp, _ = ts.do(t, http.MethodGet, "/patients/PAC-404", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthWithoutBackends(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ready := decode[ReadinessResponse](t, body)
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])

	resp, _ = ts.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)

	got, err := ParseTime("2025-03-10T09:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, loc), got)

	got, err = ParseTime("2025-03-10T12:00:00Z", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 10, 9, 0, 0, 0, loc)))

	_, err = ParseTime("10/03/2025", loc)
	assert.Error(t, err)
}
