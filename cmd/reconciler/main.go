package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/config"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/ledger"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/mason"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/redemption"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/database"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/eventbus"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/logger"
)

// maxMasonsPerPass bounds one reconciliation pass
const maxMasonsPerPass = 1000

// reconciler is the part of ledger.Service the worker drives
type reconciler interface {
	ReconcileActive(ctx context.Context, since time.Time, limit int) ([]ledger.Reconciliation, int, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, LogFile: cfg.LogFile})

	log.Info().
		Dur("interval", cfg.ReconcileInterval).
		Dur("lookback", cfg.ReconcileLookback).
		Msg("Starting balance reconciler")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, reconciling on the timer only")
	}
	defer database.CloseRedis(rdb)

	svc := ledger.NewService(ledger.NewRepository(db, cfg.DBQueryTimeout), mason.NewRepository(db, cfg.DBQueryTimeout))

	// Redemption events trigger an early pass; the timer still runs.
	wake := make(chan struct{}, 1)
	if rdb != nil {
		go subscribeWakeups(ctx, eventbus.New(rdb), wake)
	}

	run(ctx, svc, cfg.ReconcileInterval, cfg.ReconcileLookback, wake)
	log.Info().Msg("Balance reconciler stopped")
}

func run(ctx context.Context, svc reconciler, interval, lookback time.Duration, wake <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pass(ctx, svc, lookback)

		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-ticker.C:
		}
	}
}

// pass reconciles recently active masons and returns how many drifted
func pass(ctx context.Context, svc reconciler, lookback time.Duration) int {
	start := time.Now()
	drifted, checked, err := svc.ReconcileActive(ctx, start.Add(-lookback), maxMasonsPerPass)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Reconciliation pass failed")
		}
		return 0
	}

	for _, rec := range drifted {
		log.Error().
			Str("mason_id", rec.MasonID.String()).
			Int64("materialized", rec.Materialized).
			Int64("ledger_sum", rec.LedgerSum).
			Int64("drift", rec.Drift).
			Msg("Balance out of sync with ledger")
	}

	event := log.Info()
	if len(drifted) > 0 {
		event = log.Warn()
	}
	event.
		Int("checked", checked).
		Int("drifted", len(drifted)).
		Dur("took", time.Since(start)).
		Msg("Reconciliation pass finished")
	return len(drifted)
}

func subscribeWakeups(ctx context.Context, bus *eventbus.Bus, wake chan<- struct{}) {
	events, err := bus.Subscribe(ctx, redemption.EventsChannel)
	if err != nil {
		log.Error().Err(err).Msg("Failed to subscribe to redemption events")
		return
	}

	for range events {
		// non-blocking wake-up
		select {
		case wake <- struct{}{}:
		default:
		}
	}
}
