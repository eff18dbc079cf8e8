// Command stepqueen-worker mirrors the local SQLite snapshot to the Google
// spreadsheet. It reacts to sync messages and reconciles on a timer so a lost
// message only delays the mirror.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"stepqueen/internal/amqp"
	"stepqueen/internal/backend"
	"stepqueen/internal/cli"
	applog "stepqueen/internal/log"
	"stepqueen/internal/services"
	gsheet "stepqueen/internal/sheets/google"
	"stepqueen/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting stepqueen-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheet, err := gsheet.New(ctx, backendCfg.SheetsConfig())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(repo, sheet)

	// The spreadsheet is merged in before anything is mirrored back. The
	// reconciler retries a failed import on every pass and holds mirroring
	// until it succeeds.
	if err := syncWorker.EnsureImported(ctx); err != nil {
		logger.Warn("Initial import failed, mirroring held until it succeeds",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpImport,
			"retry_interval", cfg.SyncInterval)
	}

	processor := services.NewSyncProcessor(syncWorker, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		MaxRetries:   3,
	})

	g, gctx := errgroup.WithContext(ctx)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, relying on periodic reconciliation",
			applog.FieldError, err,
			"interval", cfg.SyncInterval)
	} else {
		defer amqpClient.Close()
		g.Go(func() error {
			err := amqpClient.ConsumeSnapshotSync(gctx, func(msg *amqp.SnapshotSyncMessage) error {
				return syncWorker.HandleSyncMessage(gctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		if err := processor.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return processor.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
