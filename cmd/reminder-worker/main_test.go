package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hackgods/consultation-scheduling/internal/api"
	"github.com/hackgods/consultation-scheduling/internal/client"
)

func listOf(ids ...string) api.AppointmentListResponse {
	resp := api.AppointmentListResponse{Items: []api.AppointmentResponse{}}
	for _, id := range ids {
		resp.Items = append(resp.Items, api.AppointmentResponse{
			ID:          id,
			PatientID:   "PAC-001",
			ProviderID:  "MED-001",
			ScheduledAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			Status:      "scheduled",
		})
	}
	resp.Count = len(resp.Items)
	return resp
}

func TestRunOnceLogsEachAppointmentOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/appointments/upcoming":
			_ = json.NewEncoder(w).Encode(listOf("CON-002", "CON-003"))
		case "/appointments/overdue":
			_ = json.NewEncoder(w).Encode(listOf("CON-001"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var buf bytes.Buffer
	w := &worker{
		api:      client.New(srv.URL),
		logger:   slog.New(slog.NewTextHandler(&buf, nil)),
		reminded: make(map[string]struct{}),
		flagged:  make(map[string]struct{}),
	}

	w.runOnce(context.Background())
	w.runOnce(context.Background())

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "appointment upcoming"))
	assert.Equal(t, 1, strings.Count(out, "appointment overdue"))
	assert.Equal(t, 2, strings.Count(out, "reminder run complete"))
	assert.Contains(t, out, "new_upcoming=0")
}

func TestRunOnceStopsOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal_error"}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	w := &worker{
		api:      client.New(srv.URL),
		logger:   slog.New(slog.NewTextHandler(&buf, nil)),
		reminded: make(map[string]struct{}),
		flagged:  make(map[string]struct{}),
	}

	w.runOnce(context.Background())

	assert.Contains(t, buf.String(), "list upcoming failed")
	assert.NotContains(t, buf.String(), "reminder run complete")
}
