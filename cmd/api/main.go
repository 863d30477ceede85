package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/secure-forum-backend/internal/config"
	"github.com/sandeepkv93/secure-forum-backend/internal/di"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"
	"github.com/sandeepkv93/secure-forum-backend/internal/repository"
	"github.com/sandeepkv93/secure-forum-backend/internal/tools/common"
	"github.com/sandeepkv93/secure-forum-backend/internal/tools/loadgen"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	envFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "forum",
		Short:        "Forum backend: accounts, sessions, conversations and messages",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
	cmd.AddCommand(newServeCommand(opts), newMigrateCommand(opts), loadgen.NewCommand())
	return cmd
}

func loadConfig(opts *rootOptions) (*config.Config, *slog.Logger, error) {
	if err := common.LoadEnvFile(opts.envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := observability.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, base, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, cleanup, err := di.InitializeApp(ctx, cfg, base)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			defer cleanup()
			slog.SetDefault(a.Logger)
			if autoMigrate {
				if err := repository.Migrate(a.DB); err != nil {
					return err
				}
				a.Logger.Info("schema migrated")
			}
			return a.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply schema migrations before serving")
	return cmd
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}
			db, cleanup, err := di.ProvideDB(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := repository.Migrate(db); err != nil {
				return err
			}
			logger.Info("schema migrated", "driver", cfg.DatabaseDriver)
			return nil
		},
	}
}
