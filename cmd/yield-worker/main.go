package main

import (
	"context"
	"errors"
	"os"
	"time"

	"yield/internal/amqp"
	"yield/internal/cli"
	applog "yield/internal/log"
	gsheet "yield/internal/sheets/google"
	"yield/internal/storage"
	"yield/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting yield-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.HasAMQP() {
		logger.Error("AMQP_URL is required by the worker", applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	sheetsClient, err := gsheet.NewFromConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	mirror := worker.NewMirrorWorker(repo, sheetsClient, logger.Logger)

	consumeCtx, stopConsuming := context.WithCancel(context.Background())
	consumed := make(chan struct{})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		stopConsuming()
		select {
		case <-consumed:
		case <-ctx.Done():
		}
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", applog.FieldError, err)
		}
		if err := repo.Close(); err != nil {
			logger.Error("SQLite close error", applog.FieldError, err)
		}
	})

	logger.Info("Performing startup sync check...")
	if _, err := mirror.StartupSync(consumeCtx); err != nil {
		// keep going; the queue still delivers new changes
		logger.Error("Failed startup sync check", applog.FieldError, err)
	}

	go func() {
		defer close(consumed)
		err := amqpClient.ConsumeChanges(consumeCtx, mirror.HandleChange)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
