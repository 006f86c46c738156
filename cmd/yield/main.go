package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"yield/internal/amqp"
	"yield/internal/backend"
	"yield/internal/cli"
	"yield/internal/config"
	apphttp "yield/internal/http"
	applog "yield/internal/log"
	"yield/internal/middleware/ratelimit"
	"yield/internal/view"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	signal := view.NewRefreshSignal()
	srv := apphttp.NewServer(apphttp.Options{
		Addr:        ":" + cfg.Port,
		Backend:     res.Backend,
		Signal:      signal,
		SnapshotTTL: cfg.SnapshotTTL,
		Logger:      logger,
		RateLimit:   ratelimit.DefaultConfig(),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	stopListener := startChangeListener(cfg, signal, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		stopListener()
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	go func() {
		logger.Info("Starting yield server", "port", cfg.Port, applog.FieldBackend, res.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// startChangeListener requests a refresh whenever a change is announced
// on AMQP. Without AMQP the view refreshes only on its own writes and the
// snapshot TTL. The returned func stops the listener.
func startChangeListener(cfg *config.Config, signal *view.RefreshSignal, logger *applog.Logger) func() {
	if !cfg.HasAMQP() {
		return func() {}
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP listener unavailable, remote changes refresh on TTL only", applog.FieldError, err)
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	amqpLogger := logger.WithComponent(applog.ComponentAMQP)
	go func() {
		// Own writes already requested their refresh.
		err := client.Listen(ctx, amqp.SkipOrigin(cfg.InstanceID, func(ctx context.Context, msg *amqp.ChangeMessage) error {
			version := signal.RequestRefresh()
			amqpLogger.DebugContext(ctx, "Refresh requested by change message",
				"entity", msg.Entity, "op", msg.Op, "id", msg.ID, "origin", msg.Origin,
				applog.FieldSnapshotVersion, version)
			return nil
		}))
		if err != nil && !errors.Is(err, context.Canceled) {
			amqpLogger.Warn("AMQP listener stopped", applog.FieldError, err)
		}
	}()
	return func() {
		cancel()
		client.Close()
	}
}
