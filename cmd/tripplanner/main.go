package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tripplanner/internal/amqp"
	"tripplanner/internal/backend"
	"tripplanner/internal/cli"
	"tripplanner/internal/config"
	apphttp "tripplanner/internal/http"
	"tripplanner/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), "tripplanner")
	logger.Info("Starting tripplanner")

	cfg := cli.LoadAndValidateConfig(logger.Logger, (*config.Config).Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create trips backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	// Change events are optional; without a broker the publisher is a no-op.
	var publisher *services.ChangePublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = services.NewChangePublisher(client)
		logger.Info("Publishing trip changes", "exchange", cfg.AMQPExchange)
	} else {
		publisher = services.NewChangePublisher(nil)
		logger.Info("AMQP disabled - trip changes are not published")
	}
	defer publisher.Close()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		CookieName:         cfg.AuthCookieName,
		LoginURL:           cfg.LoginURL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, result.Backend, publisher, logger)

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := cli.ShutdownContext(30 * time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
	}()

	logger.Info("Server listening", "addr", srv.Addr, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
