// Command growly records income, expenses and savings goals from the
// terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"growly/internal/backend"
	"growly/internal/cli"
	"growly/internal/config"
	"growly/internal/log"
	"growly/internal/persistence"
	"growly/internal/services"
	"growly/internal/trace"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, errUsage) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errUsage
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	svc := services.NewBudgetService(
		persistence.NewAdapter(res.Store, cfg.StorageKey, logger),
		services.Options{
			Publisher: res.Publisher(),
			CacheSize: cfg.DashboardCacheSize,
			CacheTTL:  cfg.DashboardCacheTTL,
			Logger:    logger,
		},
	)
	if err := svc.Open(ctx); err != nil {
		return err
	}
	defer svc.Close()

	a := &app{svc: svc, in: in, out: out, backupDir: cfg.BackupDir}
	return trace.Run(ctx, logger.WithComponent(log.ComponentCLI), args[0], func(ctx context.Context) error {
		return a.dispatch(ctx, args)
	})
}
