package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/consultation-scheduling/internal/client"
	"github.com/hackgods/consultation-scheduling/internal/config"
	"github.com/hackgods/consultation-scheduling/internal/logs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logs.New(cfg, "reminder-worker")
	logger.Info("reminder-worker starting up",
		slog.Duration("interval", cfg.WorkerInterval),
		slog.String("api", cfg.APIBaseURL),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := &worker{
		api:      client.New(cfg.APIBaseURL),
		logger:   logger,
		reminded: make(map[string]struct{}),
		flagged:  make(map[string]struct{}),
	}

	// Run once at startup
	w.runOnce(rootCtx)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			w.runOnce(rootCtx)
		}
	}
}

// worker reports each upcoming and each overdue appointment once per process.
type worker struct {
	api      *client.Client
	logger   *slog.Logger
	reminded map[string]struct{}
	flagged  map[string]struct{}
}

func (w *worker) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()

	upcoming, err := w.api.Upcoming(runCtx)
	if err != nil {
		w.logger.Error("list upcoming failed", slog.Any("error", err))
		return
	}
	newUpcoming := 0
	for _, a := range upcoming.Items {
		if _, seen := w.reminded[a.ID]; seen {
			continue
		}
		w.reminded[a.ID] = struct{}{}
		newUpcoming++
		w.logger.Info("appointment upcoming",
			slog.String("appointment_id", a.ID),
			slog.String("patient_id", a.PatientID),
			slog.String("provider_id", a.ProviderID),
			slog.Time("scheduled_at", a.ScheduledAt),
		)
	}

	overdue, err := w.api.Overdue(runCtx)
	if err != nil {
		w.logger.Error("list overdue failed", slog.Any("error", err))
		return
	}
	newOverdue := 0
	for _, a := range overdue.Items {
		if _, seen := w.flagged[a.ID]; seen {
			continue
		}
		w.flagged[a.ID] = struct{}{}
		newOverdue++
		w.logger.Warn("appointment overdue",
			slog.String("appointment_id", a.ID),
			slog.String("provider_id", a.ProviderID),
			slog.Time("scheduled_at", a.ScheduledAt),
		)
	}

	w.logger.Info("reminder run complete",
		slog.Int("upcoming", upcoming.Count),
		slog.Int("new_upcoming", newUpcoming),
		slog.Int("overdue", overdue.Count),
		slog.Int("new_overdue", newOverdue),
		slog.Duration("took", time.Since(start)),
	)
}
