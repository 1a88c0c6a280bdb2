package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"tac_codec/internal/codec"
	"tac_codec/internal/ingest"
)

func runIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	subject := fs.String("subject", "", "Subject carrying raw reports (default: NATS_SUBJECT)")
	_ = fs.Parse(args)

	cfg, logger, metrics, db, cleanup := setup()
	defer cleanup()
	if *subject != "" {
		cfg.NATSSubject = *subject
	}

	nc, err := ingest.Connect(cfg.NATSURL, logger)
	if err != nil {
		logger.Error("nats", "error", err)
		cleanup()
		os.Exit(1)
	}
	defer nc.Close()

	opts := []ingest.Option{ingest.WithMetrics(metrics)}
	if db.Enabled() {
		opts = append(opts, ingest.WithStore(db))
	}
	if len(cfg.KafkaBrokers) > 0 {
		opts = append(opts, ingest.WithSink(ingest.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, logger, metrics)))
	}
	svc := ingest.NewService(codec.New(), cfg.Hints, logger, opts...)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("close sinks", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx, nc, cfg.NATSSubject, cfg.NATSQueue, cfg.NATSResultSubject); err != nil {
		logger.Error("ingest stopped", "error", err)
	}
}
