package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"perks/internal/amqp"
	"perks/internal/backend"
	"perks/internal/catalog"
	"perks/internal/config"
	"perks/internal/log"
	"perks/internal/sheets/google"
	"perks/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo, Component: "perks-worker"})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	cat, err := catalog.LoadEmbedded()
	if err != nil {
		logger.Error("Failed to load catalog", log.FieldError, err)
		os.Exit(1)
	}

	store, cleanup, err := backend.Open(cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter, err := google.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to create sheets exporter", log.FieldError, err)
		os.Exit(1)
	}

	var client *amqp.Client
	if cfg.AMQPURL != "" {
		client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
	} else {
		logger.Warn("AMQP_URL not set, running periodic export only")
	}

	w := worker.NewSyncWorker(cat, store, exporter, client, cfg.ExportInterval, logger)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
}
