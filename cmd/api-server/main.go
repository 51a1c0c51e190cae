package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/consultation-scheduling/internal/api"
	"github.com/hackgods/consultation-scheduling/internal/appointment"
	"github.com/hackgods/consultation-scheduling/internal/config"
	"github.com/hackgods/consultation-scheduling/internal/db"
	"github.com/hackgods/consultation-scheduling/internal/ident"
	"github.com/hackgods/consultation-scheduling/internal/logs"
	"github.com/hackgods/consultation-scheduling/internal/participant"
	redisclient "github.com/hackgods/consultation-scheduling/internal/redis"
	"github.com/hackgods/consultation-scheduling/internal/report"
)

const version = "v0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logs.New(cfg, "api-server")
	slog.SetDefault(logger)
	logger.Info("api-server starting up", slog.String("http_port", cfg.HTTPPort), slog.String("version", version))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := appointment.Deps{Logger: logger}

	// Schedule store: Postgres when configured, memory otherwise
	var pgPool *pgxpool.Pool
	if cfg.UsePostgres() {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{})
		if err == nil {
			err = db.EnsureSchema(pgCtx, pgPool)
		}
		cancelPg()
		if err != nil {
			logger.Error("postgres setup error", slog.Any("error", err))
			os.Exit(1)
		}
		defer pgPool.Close()
		deps.Repo = appointment.NewPgRepository(pgPool)
		logger.Info("connected to Postgres")
	} else {
		deps.Repo = appointment.NewMemoryRepository()
		logger.Warn("POSTGRES_DSN not set, appointments are kept in memory")
	}

	// Provider locks and appointment ids: Redis when configured
	var rdb *redis.Client
	if cfg.UseRedis() {
		rdb, err = redisclient.NewRedisClient(rootCtx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			logger.Error("redis connection error", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error("error closing redis", slog.Any("error", err))
			}
		}()
		deps.Locker = redisclient.NewRedisProviderLocker(rdb, cfg.LockTTL, cfg.LockWait)
		deps.IDs = redisclient.NewRedisSequence(rdb, ident.KindAppointment)
		logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
	} else if cfg.UsePostgres() {
		logger.Warn("REDIS_ADDR not set, provider locks are local to this process")
	}

	directory := participant.NewDirectory()
	deps.Patients = directory.Patients()
	deps.Providers = directory.Providers()

	svc := appointment.NewService(deps)
	svc.Location = cfg.Location
	svc.UpcomingWindow = cfg.UpcomingWindow

	reports := report.NewAggregator(svc, directory.Patients(), directory.Providers())
	reports.Location = cfg.Location

	router := api.NewRouter(api.RouterConfig{
		Service:      svc,
		Reports:      reports,
		Participants: directory,
		PgPool:       pgPool,
		Redis:        rdb,
		Logger:       logger,
		Location:     cfg.Location,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.Any("error", err))
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down api-server", slog.Duration("timeout", cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
