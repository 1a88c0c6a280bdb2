package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"tac_codec/internal/api"
	"tac_codec/internal/codec"
	"tac_codec/internal/config"
	"tac_codec/internal/observability"
	"tac_codec/internal/storage"
)

// setup loads configuration and builds the logger, metrics and archive
// shared by serve and ingest.
func setup() (*config.Config, *slog.Logger, *observability.Metrics, *storage.DB, func()) {
	cfg, err := config.Load()
	if err != nil {
		fatalf("Configuration error: %v", err)
	}
	logger, logCloser := observability.NewLogger(cfg)
	slog.SetDefault(logger)

	db, err := storage.Open(context.Background(), storage.Config{
		SQLitePath: cfg.SQLitePath,
		Postgres:   storage.PostgresConfig{URL: cfg.PostgresURL},
		ClickHouse: storage.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			User:     cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		},
	})
	if err != nil {
		logger.Error("open storage", "error", err)
		os.Exit(1)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Error("close storage", "error", err)
		}
		_ = logCloser.Close()
	}
	return cfg, logger, observability.NewMetrics(prometheus.DefaultRegisterer), db, cleanup
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default: HTTP_ADDR)")
	_ = fs.Parse(args)

	cfg, logger, metrics, db, cleanup := setup()
	defer cleanup()
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	opts := []api.Option{api.WithMetrics(metrics), api.WithLogger(logger)}
	if db.SQLite != nil {
		opts = append(opts, api.WithArchive(db.SQLite))
	}
	if db.PG != nil {
		opts = append(opts, api.WithLatest(db.PG))
	}
	srv := api.NewServer(codec.New(), api.Config{
		Hints:     cfg.Hints,
		CacheSize: cfg.CacheSize,
		APIKeys:   cfg.APIKeys,
	}, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cfg.HTTPAddr, cfg.ShutdownTimeout); err != nil {
		logger.Error("api stopped", "error", err)
		cleanup()
		os.Exit(1)
	}
}
