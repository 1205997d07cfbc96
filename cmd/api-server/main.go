package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/frontdesk/internal/api"
	"github.com/clinicdesk/frontdesk/internal/auth"
	"github.com/clinicdesk/frontdesk/internal/config"
	"github.com/clinicdesk/frontdesk/internal/db"
	"github.com/clinicdesk/frontdesk/internal/notify"
	"github.com/clinicdesk/frontdesk/internal/observability/metrics"
	"github.com/clinicdesk/frontdesk/internal/patient"
	"github.com/clinicdesk/frontdesk/internal/queue"
	redisclient "github.com/clinicdesk/frontdesk/internal/redis"
	"github.com/clinicdesk/frontdesk/internal/reports"
	"github.com/clinicdesk/frontdesk/internal/scheduling"
	"github.com/clinicdesk/frontdesk/internal/visit"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLog := zerolog.New(os.Stderr)
		errLog.Fatal().Err(err).Msg("config load error")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "api-server").Logger()

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	hub := notify.NewHub(log.With().Str("component", "notify").Logger())
	httpMetrics := metrics.NewHTTPMetrics(nil)
	queueMetrics := metrics.NewQueueMetrics(nil)

	locker := redisclient.NewRedisQueueLocker(rdb, cfg.LockTTL)

	authSvc := auth.NewService(auth.NewPgRepository(pgPool), cfg.JWTSecret, cfg.TokenTTL)
	patientSvc := patient.NewService(patient.NewPgRepository(pgPool))
	visitSvc := visit.NewService(visit.NewPgRepository(pgPool))
	queueSvc := queue.NewService(
		queue.NewPgRepository(pgPool),
		locker,
		hub,
		queueMetrics,
		cfg.DoctorName,
		log.With().Str("component", "queue").Logger(),
	)
	schedulingSvc := scheduling.NewService(
		scheduling.NewPgRepository(pgPool),
		queueSvc,
		log.With().Str("component", "scheduling").Logger(),
	)
	reportsSvc := reports.NewService(
		reports.NewPgRepository(pgPool),
		reports.Fees{Consultation: cfg.ConsultationFee, Examination: cfg.ExaminationFee},
		cfg.WeekStart,
	)

	router := api.NewRouter(api.RouterConfig{
		Auth:        authSvc,
		Patients:    patientSvc,
		Scheduling:  schedulingSvc,
		Queue:       queueSvc,
		Visits:      visitSvc,
		Reports:     reportsSvc,
		Hub:         hub,
		HTTPMetrics: httpMetrics,
		PgPool:      pgPool,
		Redis:       rdb,
		JWTSecret:   cfg.JWTSecret,
		Env:         cfg.Env,
		Version:     version,
		Log:         log.With().Str("component", "http").Logger(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("http server error")
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("api-server stopped")
}
