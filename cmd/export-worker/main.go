package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tripplanner/internal/amqp"
	"tripplanner/internal/cli"
	"tripplanner/internal/config"
	"tripplanner/internal/services"
	"tripplanner/internal/sheets"
	gsheet "tripplanner/internal/sheets/google"
	memsheet "tripplanner/internal/sheets/memory"
	"tripplanner/internal/tripapi"
	"tripplanner/internal/worker"
)

const resyncBatch = 100

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), "export-worker")
	logger.Info("Starting export-worker")

	cfg := cli.LoadAndValidateConfig(logger.Logger, (*config.Config).ValidateWorker)

	repo := cli.InitSQLite(logger.Logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	var itineraries sheets.ItineraryStore
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, gsheet.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		itineraries = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		itineraries = memsheet.New()
		logger.Info("Google Sheets disabled - itineraries are kept in memory")
	}

	api := tripapi.New(cfg.TripsAPIURL,
		tripapi.WithHTTPClient(tripapi.NewHTTPClient(cfg.APITimeout)),
		tripapi.WithLogger(logger.Logger))
	exporter := worker.NewExportWorker(api, itineraries, repo, cfg.ExportAPIToken)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Refresh exports that may have missed messages while the worker was down.
	if err := exporter.Resync(ctx, resyncBatch); err != nil {
		logger.Error("Startup resync failed", "error", err)
	}

	pruner := services.NewPruneProcessor(repo, services.DefaultPruneProcessorConfig())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := pruner.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		shutdownCtx, cancel := cli.ShutdownContext(30 * time.Second)
		defer cancel()
		return pruner.Stop(shutdownCtx)
	})
	g.Go(func() error {
		for {
			err := amqpClient.ConsumeTripChanges(gctx, exporter.HandleTripChanged)
			if gctx.Err() != nil {
				return nil
			}
			logger.Error("Message consumption failed", "error", err, "retry_in", cfg.ExportRetryInterval)
			select {
			case <-gctx.Done():
				return nil
			case <-time.After(cfg.ExportRetryInterval):
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
