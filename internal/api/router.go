package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/consultation-scheduling/internal/appointment"
	"github.com/hackgods/consultation-scheduling/internal/participant"
	"github.com/hackgods/consultation-scheduling/internal/report"
)

type RouterConfig struct {
	Service      *appointment.Service
	Reports      *report.Aggregator
	Participants *participant.Directory
	PgPool       *pgxpool.Pool // optional
	Redis        *redis.Client // optional
	Logger       *slog.Logger
	Location     *time.Location // zone for timestamps sent without an offset
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	svc, loc := cfg.Service, cfg.Location
	dir := cfg.Participants

	// Appointment endpoints
	r.Post("/appointments", createAppointmentHandler(svc, loc))
	r.Get("/appointments", listAppointmentsHandler(svc, loc))
	r.Get("/appointments/upcoming", upcomingHandler(svc))
	r.Get("/appointments/overdue", overdueHandler(svc))
	r.Get("/appointments/pending-today", pendingTodayHandler(svc))
	r.Get("/appointments/{id}", getAppointmentHandler(svc, dir))
	r.Post("/appointments/{id}/complete", completeAppointmentHandler(svc))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(svc))
	r.Patch("/appointments/{id}/notes", updateNotesHandler(svc))

	r.Get("/slots/free", slotFreeHandler(svc, loc))

	// Participants
	r.Post("/patients", createPatientHandler(dir))
	r.Get("/patients", listPatientsHandler(dir))
	r.Get("/patients/{id}", getPatientHandler(dir))
	r.Post("/patients/{id}/activate", setPatientActiveHandler(dir, true))
	r.Post("/patients/{id}/deactivate", setPatientActiveHandler(dir, false))
	r.Get("/patients/{id}/appointments", patientAppointmentsHandler(svc))

	r.Post("/providers", createProviderHandler(dir))
	r.Get("/providers", listProvidersHandler(dir))
	r.Get("/providers/available", availableProvidersHandler(svc, dir, loc))
	r.Get("/providers/{id}", getProviderHandler(dir))
	r.Post("/providers/{id}/activate", setProviderActiveHandler(dir, true))
	r.Post("/providers/{id}/deactivate", setProviderActiveHandler(dir, false))
	r.Get("/providers/{id}/appointments", providerAppointmentsHandler(svc, loc))

	// Reports
	r.Get("/reports/day/stats", dayStatsHandler(cfg.Reports, loc))
	r.Get("/reports/day", dayReportHandler(cfg.Reports, loc))
	r.Get("/reports/cancellations", cancellationReportHandler(cfg.Reports, loc))

	return r
}
