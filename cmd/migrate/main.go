// migrate applies the embedded XP ledger and pairing audit migrations to DATABASE_URL.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jagx-bot/internal/config"
	"jagx-bot/internal/db/migrate"
	"jagx-bot/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var direction string
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply database migrations for the XP ledger and pairing audit log",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := migrate.ParseDirection(direction)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.Env)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set; XP and audit persistence need Postgres")
			}
			if err := migrate.Run(cfg.DatabaseURL, dir); err != nil {
				logger.Error("migration failed", zap.String("direction", string(dir)), zap.Error(err))
				return err
			}
			logger.Info("migrations applied", zap.String("direction", string(dir)))
			return nil
		},
	}
	cmd.Flags().StringVar(&direction, "direction", string(migrate.Up), "migration direction: up or down")
	return cmd
}
