// Command contentctl runs operator tasks against the content database:
// schema migrations, the daily post gate and one-off generation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lmojica26/womenhealthytips.com/internal/config"
	"github.com/lmojica26/womenhealthytips.com/internal/logging"
)

// env is the configuration shared by every subcommand.
type env struct {
	cfg    config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		envFile string
		debug   bool
	)
	e := &env{}

	root := &cobra.Command{
		Use:          "contentctl",
		Short:        "Operate the women's health content service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if debug {
				cfg.Logging.Level = slog.LevelDebug
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			e.cfg, e.logger = cfg, logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newMigrateCmd(e),
		newDailyPostCmd(e),
		newGenerateCmd(e),
	)
	return root
}
