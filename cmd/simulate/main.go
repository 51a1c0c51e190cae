package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/hackgods/consultation-scheduling/internal/api"
	"github.com/hackgods/consultation-scheduling/internal/appointment"
	"github.com/hackgods/consultation-scheduling/internal/client"
	"github.com/hackgods/consultation-scheduling/internal/config"
	"github.com/hackgods/consultation-scheduling/internal/logs"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	BookingRatio  float64
	CancelRatio   float64
	CompleteRatio float64
	ReadRatio     float64
	Patients      int
	Providers     int
	Days          int
	Location      *time.Location
}

// DataPool holds the participants and slots the workers draw from. The slot
// pool is kept small on purpose so concurrent bookings collide.
type DataPool struct {
	Patients  []string
	Providers []string
	Slots     []time.Time

	mu           sync.RWMutex
	appointments []string
}

func (dp *DataPool) AddAppointment(id string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return "", false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	api     *client.Client
	logger  *slog.Logger
	metrics Metrics
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load base config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logs.New(baseCfg, "simulate")

	cfg := loadConfig(baseCfg)
	if err := validateConfig(cfg); err != nil {
		logger.Error("invalid config", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("simulator starting",
		slog.Duration("duration", cfg.Duration),
		slog.Int("workers", cfg.Workers),
		slog.Float64("booking", cfg.BookingRatio),
		slog.Float64("cancel", cfg.CancelRatio),
		slog.Float64("complete", cfg.CompleteRatio),
		slog.Float64("read", cfg.ReadRatio),
	)

	sim := &Simulator{
		config: cfg,
		api:    client.New(cfg.APIBaseURL),
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	sim.pool, err = buildDataPool(ctx, sim.api, cfg)
	cancel()
	if err != nil {
		logger.Error("build data pool", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("data pool ready",
		slog.Int("patients", len(sim.pool.Patients)),
		slog.Int("providers", len(sim.pool.Providers)),
		slog.Int("slots", len(sim.pool.Slots)),
	)

	sim.Run()
	sim.metrics.Print(cfg.Duration, cfg.Workers)

	if err := sim.Verify(context.Background()); err != nil {
		logger.Error("invariant check failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("no provider was double booked")
}

func loadConfig(base config.Config) SimConfig {
	cfg := SimConfig{
		APIBaseURL:    base.APIBaseURL,
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		BookingRatio:  getFloat("SIM_BOOKING_RATIO", 0.5),
		CancelRatio:   getFloat("SIM_CANCEL_RATIO", 0.1),
		CompleteRatio: getFloat("SIM_COMPLETE_RATIO", 0.1),
		ReadRatio:     getFloat("SIM_READ_RATIO", 0.3),
		Patients:      getInt("SIM_PATIENTS", 50),
		Providers:     getInt("SIM_PROVIDERS", 5),
		Days:          getInt("SIM_DAYS", 2),
		Location:      base.Location,
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.CancelRatio + cfg.CompleteRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.CancelRatio /= total
		cfg.CompleteRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Patients <= 0 || cfg.Providers <= 0 || cfg.Days <= 0 {
		return fmt.Errorf("SIM_PATIENTS, SIM_PROVIDERS and SIM_DAYS must be > 0")
	}
	return nil
}

// buildDataPool registers fresh participants and lays out half-hour slots
// from 08:00 to 11:30 starting tomorrow, so every booking can be cancelled.
func buildDataPool(ctx context.Context, c *client.Client, cfg SimConfig) (*DataPool, error) {
	dp := &DataPool{}
	run := strconv.FormatInt(time.Now().Unix(), 36)

	for i := 0; i < cfg.Providers; i++ {
		p, err := c.CreateProvider(ctx, api.CreateProviderRequest{
			Name:    "Dr. " + gofakeit.Name(),
			License: fmt.Sprintf("SIM-%s-%03d", run, i),
		})
		if err != nil {
			return nil, fmt.Errorf("create provider: %w", err)
		}
		dp.Providers = append(dp.Providers, p.ID)
	}

	for i := 0; i < cfg.Patients; i++ {
		p, err := c.CreatePatient(ctx, api.CreatePatientRequest{Name: gofakeit.Name(), Email: gofakeit.Email()})
		if err != nil {
			return nil, fmt.Errorf("create patient: %w", err)
		}
		dp.Patients = append(dp.Patients, p.ID)
	}

	tomorrow := appointment.StartOfDay(time.Now().In(cfg.Location)).AddDate(0, 0, 1)
	for d := 0; d < cfg.Days; d++ {
		day := tomorrow.AddDate(0, 0, d)
		for slot := 16; slot < 24; slot++ {
			dp.Slots = append(dp.Slots, day.Add(time.Duration(slot)*30*time.Minute))
		}
	}

	return dp, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info("starting simulation", slog.Duration("duration", s.config.Duration), slog.Int("workers", s.config.Workers))

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			// Select operation based on ratios
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.CancelRatio:
				s.doCancel(ctx, rng)
			case r < s.config.BookingRatio+s.config.CancelRatio+s.config.CompleteRatio:
				s.doComplete(ctx, rng)
			default:
				switch rng.Intn(3) {
				case 0:
					s.doReadByID(ctx, rng)
				case 1:
					s.doListByDay(ctx, rng)
				case 2:
					s.doSlotCheck(ctx, rng)
				}
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	providerID := s.pool.Providers[rng.Intn(len(s.pool.Providers))]
	at := s.pool.Slots[rng.Intn(len(s.pool.Slots))]

	start := time.Now()
	appt, err := s.api.Schedule(ctx, patientID, providerID, at, "")
	latency := time.Since(start)

	if err == nil {
		s.pool.AddAppointment(appt.ID)
	}
	conflict := client.IsCode(err, "slot_conflict") || client.IsCode(err, "provider_busy")
	s.metrics.Booking.Record(latency, err == nil, conflict)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	_, err := s.api.Cancel(ctx, id, "simulated cancellation")
	latency := time.Since(start)

	conflict := client.IsCode(err, "invalid_transition") || client.IsCode(err, "provider_busy")
	s.metrics.Cancel.Record(latency, err == nil, conflict)
}

func (s *Simulator) doComplete(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	_, err := s.api.Complete(ctx, id, "")
	latency := time.Since(start)

	conflict := client.IsCode(err, "invalid_transition") || client.IsCode(err, "provider_busy")
	s.metrics.Complete.Record(latency, err == nil, conflict)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	_, err := s.api.GetAppointment(ctx, id)
	s.metrics.ReadByID.Record(time.Since(start), err == nil, false)
}

func (s *Simulator) doListByDay(ctx context.Context, rng *rand.Rand) {
	day := s.pool.Slots[rng.Intn(len(s.pool.Slots))]

	start := time.Now()
	_, err := s.api.ListAppointments(ctx, client.ListFilter{Date: &day})
	s.metrics.ListByDay.Record(time.Since(start), err == nil, false)
}

func (s *Simulator) doSlotCheck(ctx context.Context, rng *rand.Rand) {
	providerID := s.pool.Providers[rng.Intn(len(s.pool.Providers))]
	at := s.pool.Slots[rng.Intn(len(s.pool.Slots))]

	start := time.Now()
	_, err := s.api.SlotFree(ctx, providerID, at)
	s.metrics.SlotCheck.Record(time.Since(start), err == nil, false)
}

// Verify lists every scheduled appointment and fails when two of them share
// a provider and a time.
func (s *Simulator) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	list, err := s.api.ListAppointments(ctx, client.ListFilter{Status: string(appointment.StatusScheduled)})
	if err != nil {
		return fmt.Errorf("list scheduled appointments: %w", err)
	}
	if dups := findDoubleBookings(list.Items); len(dups) > 0 {
		return fmt.Errorf("%d double bookings: %v", len(dups), dups)
	}
	return nil
}

func findDoubleBookings(appts []api.AppointmentResponse) []string {
	type slotKey struct {
		provider string
		at       int64
	}
	seen := make(map[slotKey]string, len(appts))
	var dups []string
	for _, a := range appts {
		if a.Status != string(appointment.StatusScheduled) {
			continue
		}
		k := slotKey{provider: a.ProviderID, at: a.ScheduledAt.Unix()}
		if first, ok := seen[k]; ok {
			dups = append(dups, first+"/"+a.ID)
			continue
		}
		seen[k] = a.ID
	}
	return dups
}

// Helper functions

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
