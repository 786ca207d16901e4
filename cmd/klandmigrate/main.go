package main

import (
	"context"
	"fmt"
	"github.com/sleepstars/kland/internal/config"
	"github.com/sleepstars/kland/internal/logging"
	"github.com/sleepstars/kland/internal/migrator"
	"github.com/sleepstars/kland/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "klandmigrate",
		Short:        "Copy kland threads, posts and bans from MySQL into a SQLite file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.ValidateMigrate(); err != nil {
				return err
			}

			logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync()

			report, err := migrator.Run(cmd.Context(), migrator.Config{
				DestinationPath: cfg.Migrate.SQLiteDB,
				SourceDSN:       cfg.Migrate.MySQLDSN,
			}, logger)
			if err != nil {
				logger.Error("migration failed", zap.Error(err))
				return err
			}

			out := cmd.OutOrStdout()
			for _, kind := range model.Kinds {
				c := report.Count(kind)
				fmt.Fprintf(out, "%-8s read %d, written %d\n", kind, c.Read, c.Written)
			}
			fmt.Fprintf(out, "all complete in %s\n", report.Duration)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	return cmd
}
