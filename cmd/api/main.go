package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/1221221212/reservation-for-justin-sub000/internal/app"
	"github.com/1221221212/reservation-for-justin-sub000/internal/cache"
	"github.com/1221221212/reservation-for-justin-sub000/internal/clock"
	"github.com/1221221212/reservation-for-justin-sub000/internal/config"
	"github.com/1221221212/reservation-for-justin-sub000/internal/metrics"
	"github.com/1221221212/reservation-for-justin-sub000/internal/storage/postgres"
	transporthttp "github.com/1221221212/reservation-for-justin-sub000/internal/transport/http"
	"github.com/1221221212/reservation-for-justin-sub000/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal().Err(err).Msg("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	clk := clock.NewSystem()
	m := metrics.New(nil, "reservation")

	venueRepo := postgres.NewVenueRepository(pool)
	scheduleRepo := postgres.NewScheduleRepository(pool)
	reservationRepo := postgres.NewReservationRepository(pool).WithLockTimeout(cfg.LockTimeout)

	scheduleSvc := app.NewScheduleService(scheduleRepo, venueRepo)
	availabilitySvc := app.NewAvailabilityService(scheduleSvc, reservationRepo, m)

	var availability transporthttp.AvailabilityProvider = availabilitySvc
	var invalidator app.CacheInvalidator

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(startupCtx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, availability cache disabled")
		} else {
			availCache := cache.New(rdb, cfg.CacheTTL, cfg.CacheWindowDays, clk)
			availability = app.NewCachedAvailability(availabilitySvc, availCache, logger, m)
			invalidator = availCache
			logger.Info().Str("addr", cfg.RedisAddr).Msg("availability cache enabled")
		}
	}

	bookingSvc := app.NewBookingService(reservationRepo, invalidator, clk, logger, m)

	defaults := transporthttp.QueryDefaults{
		GridUnitMinutes:     cfg.GridUnitMinutes,
		BufferSlots:         cfg.BufferSlots,
		StandardSlotMinutes: cfg.StandardSlotMinutes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/venues/", transporthttp.HandleVenues(scheduleSvc, availability, defaults))
	mux.Handle("/reservations", transporthttp.HandleCreateReservation(bookingSvc))
	mux.Handle("/reservations/", transporthttp.HandleGetReservation(reservationRepo))
	mux.Handle("/", transporthttp.NotFoundHandler())

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: transporthttp.RequestLogger(mux, logger),
	}

	logger.Info().Str("addr", cfg.ListenAddr).Msg("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		logger.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server stopped")
}
