package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"growly/internal/amqp"
	"growly/internal/backend"
	"growly/internal/cli"
	"growly/internal/config"
	"growly/internal/log"
	"growly/internal/persistence"
	"growly/internal/trace"
	"growly/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger("info", os.Stdout).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, os.Stdout).WithComponent(log.ComponentWorker)
	logger.Info("Starting growly-backup-worker")

	if err := run(cfg, logger); err != nil {
		logger.Error("Backup worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Backup worker stopped")
}

func run(cfg *config.Config, logger *log.Logger) error {
	// Only the SQLite backend is shared between processes.
	if cfg.Backend != string(backend.SQLiteBackend) {
		return errors.New("backup worker requires the sqlite backend")
	}

	storeCfg := backend.Config{
		Type:         backend.SQLiteBackend,
		SQLiteDBPath: cfg.DBPath,
		StorageKey:   cfg.StorageKey,
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), storeCfg)
	if err != nil {
		return err
	}
	defer res.Close()

	adapter := persistence.NewAdapter(res.Store, cfg.StorageKey, logger)
	backups := worker.NewBackupWorker(adapter, cfg.BackupDir, cfg.BackupRetain, logger)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	if err := backups.StartupBackup(ctx); err != nil {
		logger.Error("Startup backup failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return backups.RunPeriodic(gctx, cfg.BackupInterval)
	})
	if cfg.FeedEnabled() {
		g.Go(func() error {
			return consume(gctx, cfg, backups, logger)
		})
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, running periodic backups only")
	}

	err = g.Wait()
	if ctx.Err() != nil {
		<-done
	}
	return err
}

// consume keeps a consumer attached to the change queue, redialing with
// backoff whenever the connection drops, until ctx is done.
func consume(ctx context.Context, cfg *config.Config, backups *worker.BackupWorker, logger *log.Logger) error {
	for attempt := 0; ; attempt++ {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err == nil {
			attempt = 0
			logger.InfoContext(ctx, "Connected to AMQP",
				log.FieldExchange, cfg.AMQPExchange,
				log.FieldQueue, cfg.AMQPQueue)
			err = client.ConsumeChanges(ctx, func(ctx context.Context, ev *amqp.ChangeEvent) error {
				return trace.Run(ctx, logger, log.OpBackup, func(ctx context.Context) error {
					return backups.HandleChange(ctx, ev)
				})
			})
			client.Close()
		}
		if ctx.Err() != nil {
			return nil
		}

		wait := amqp.Backoff(attempt)
		logger.WarnContext(ctx, "AMQP consumer interrupted, retrying",
			log.FieldError, err,
			"retry_in", wait)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}
