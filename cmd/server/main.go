package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManasPatni/log-aggregator/internal/api"
	"github.com/ManasPatni/log-aggregator/internal/config"
	"github.com/ManasPatni/log-aggregator/internal/detector"
	"github.com/ManasPatni/log-aggregator/internal/ingest"
	"github.com/ManasPatni/log-aggregator/internal/logger"
	"github.com/ManasPatni/log-aggregator/internal/metrics"
	"github.com/ManasPatni/log-aggregator/internal/notify"
	"github.com/ManasPatni/log-aggregator/internal/store"
	"github.com/ManasPatni/log-aggregator/internal/tracing"
)

func main() {
	log := logger.New(env("LOG_LEVEL", "info"))
	cfgPath := env("CONFIG_PATH", "configs/config.yaml")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("load config")
	}

	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	closer, err := tracing.Init(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Error().Err(err).Msg("tracing init failed")
	}
	defer func() { _ = closer(context.Background()) }()

	// Store
	var db store.Store
	switch cfg.Storage.Backend {
	case "postgres":
		db, err = store.OpenPostgres(ctx, cfg.Storage.DSN)
	default:
		db, err = store.OpenBolt(cfg.Storage.Path)
	}
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("open store")
	}
	defer db.Close()

	// Ephemeral deployments start from an empty corpus every run.
	if cfg.Storage.Ephemeral {
		if err := db.Reset(ctx); err != nil {
			log.Fatal().Err(err).Msg("reset store")
		}
		log.Info().Msg("store reset (ephemeral mode)")
	}

	// Detector
	det := detector.New(detector.Config{
		Contamination: cfg.Detector.Contamination,
		MinSamples:    cfg.Detector.MinSamples,
		Seed:          cfg.Detector.Seed,
		Trees:         cfg.Detector.Trees,
		SampleSize:    cfg.Detector.SampleSize,
	})

	// Notifier
	slack := notify.NewSlack(cfg.Slack.Enabled, cfg.Slack.Webhook)

	// Ingest
	ing := ingest.New(log, db, det, slack)

	// API
	srv := api.NewServer(api.Deps{Log: log, Store: db, Ingest: ing}, api.Config{Addr: cfg.Server.Addr})
	log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

func env(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
