package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/hackgods/consultation-scheduling/internal/api"
	"github.com/hackgods/consultation-scheduling/internal/appointment"
	"github.com/hackgods/consultation-scheduling/internal/client"
	"github.com/hackgods/consultation-scheduling/internal/config"
	"github.com/hackgods/consultation-scheduling/internal/logs"
	"github.com/hackgods/consultation-scheduling/internal/participant"
)

func main() {
	providers := flag.Int("providers", 8, "number of providers to create")
	patients := flag.Int("patients", 60, "number of patients to create")
	appointments := flag.Int("appointments", 120, "number of appointments to attempt")
	days := flag.Int("days", 5, "spread appointments over this many days starting today")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logs.New(cfg, "seed")
	logger.Info("seed starting", slog.String("api", cfg.APIBaseURL))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c := client.New(cfg.APIBaseURL)
	gofakeit.Seed(time.Now().UnixNano())

	providerIDs, err := seedProviders(ctx, logger, c, *providers)
	if err != nil {
		logger.Error("seed providers", slog.Any("error", err))
		os.Exit(1)
	}
	patientIDs, err := seedPatients(ctx, logger, c, *patients)
	if err != nil {
		logger.Error("seed patients", slog.Any("error", err))
		os.Exit(1)
	}

	booked := seedAppointments(ctx, logger, c, patientIDs, providerIDs, *appointments, *days, cfg.Location)
	logger.Info("seed complete",
		slog.Int("providers", len(providerIDs)),
		slog.Int("patients", len(patientIDs)),
		slog.Int("appointments", booked),
	)
}

func seedProviders(ctx context.Context, logger *slog.Logger, c *client.Client, count int) ([]string, error) {
	logger.Info("seeding providers", slog.Int("count", count))

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		specialty := participant.Specialties[gofakeit.Number(0, len(participant.Specialties)-1)]
		p, err := c.CreateProvider(ctx, api.CreateProviderRequest{
			Name:      "Dr. " + gofakeit.Name(),
			License:   gofakeit.Numerify("#####-") + gofakeit.StateAbr(),
			Specialty: string(specialty),
			Phone:     gofakeit.Phone(),
		})
		if client.IsCode(err, "duplicate_license") {
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func seedPatients(ctx context.Context, logger *slog.Logger, c *client.Client, count int) ([]string, error) {
	logger.Info("seeding patients", slog.Int("count", count))

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		p, err := c.CreatePatient(ctx, api.CreatePatientRequest{
			Name:  gofakeit.Name(),
			Email: gofakeit.Email(),
			Phone: gofakeit.Phone(),
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// seedAppointments books random half-hour slots between 08:00 and 17:30.
// Slot conflicts are expected and skipped.
func seedAppointments(ctx context.Context, logger *slog.Logger, c *client.Client, patients, providers []string, count, days int, loc *time.Location) int {
	if len(patients) == 0 || len(providers) == 0 || days < 1 {
		return 0
	}
	logger.Info("seeding appointments", slog.Int("attempts", count), slog.Int("days", days))

	today := appointment.StartOfDay(time.Now().In(loc))
	booked, conflicts := 0, 0
	for i := 0; i < count; i++ {
		at := today.AddDate(0, 0, gofakeit.Number(0, days-1)).
			Add(time.Duration(gofakeit.Number(16, 35)) * 30 * time.Minute)

		_, err := c.Schedule(ctx,
			patients[gofakeit.Number(0, len(patients)-1)],
			providers[gofakeit.Number(0, len(providers)-1)],
			at,
			gofakeit.Sentence(6),
		)
		switch {
		case err == nil:
			booked++
		case client.IsCode(err, "slot_conflict"), client.IsCode(err, "past_date_rejected"):
			conflicts++
		default:
			logger.Warn("schedule failed", slog.Any("error", err))
		}
	}
	logger.Info("appointments seeded", slog.Int("booked", booked), slog.Int("skipped", conflicts))
	return booked
}
