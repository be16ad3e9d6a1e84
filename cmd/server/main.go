package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/lmojica26/womenhealthytips.com/internal/app"
	"github.com/lmojica26/womenhealthytips.com/internal/config"
	"github.com/lmojica26/womenhealthytips.com/internal/database"
	"github.com/lmojica26/womenhealthytips.com/internal/logging"
	"github.com/lmojica26/womenhealthytips.com/internal/server"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting content service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Pending migrations are non-fatal so the read surface can still start.
	if err := database.RunMigrations(a.DB, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	var wg sync.WaitGroup
	runner, err := a.Runner()
	if err != nil {
		logger.Error("failed to configure daily post scheduler", "error", err)
		os.Exit(1)
	}
	if runner != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runner.Start(ctx)
		}()
	} else {
		logger.Info("DAILY_POST_SCHEDULE not set, relying on the cron endpoint")
	}

	srv := server.New(cfg.Server, logger, a.Handler())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	select {
	case sig := <-waitForSignal():
		logger.Info("received signal", "signal", sig.String())
		cancel()
		if err := <-errCh; err != nil {
			logger.Error("shutdown error", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
		}
		cancel()
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func waitForSignal() <-chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	return c
}
