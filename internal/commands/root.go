// Package commands implements the pharmacy command line.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pharmacy/m/internal/config"
	"pharmacy/m/internal/database"
	"pharmacy/m/internal/logger"
	"pharmacy/m/internal/migrations"
)

var (
	// Global flags
	driver string
	dsn    string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pharmacy",
	Short: "Pharmacy inventory and point-of-sale backend",
	Long: `Pharmacy serves the inventory and point-of-sale HTTP API: medicines,
suppliers, purchases, sales, staff accounts and dashboard statistics.

Configuration is read from the environment and an optional .env file.
The --driver and --dsn flags override DATABASE_DRIVER and DATABASE_DSN.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "Database driver, sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database connection string")
}

// runtime is what every subcommand needs before doing its own work.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	db     *sqlx.DB
}

// setup loads configuration, builds the logger and opens a migrated database.
func setup(ctx context.Context) (*runtime, error) {
	cfg := config.Load()
	if driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}

	log, err := logger.New(cfg.Logger, cfg.IsDevelopment())
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	for _, warning := range cfg.Warnings {
		log.Warn("configuration", zap.String("warning", warning))
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		_ = log.Sync()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database ready", zap.String("driver", cfg.Database.Driver))
	return &runtime{cfg: cfg, logger: log, db: db}, nil
}

func (rt *runtime) Close() {
	rt.db.Close()
	_ = rt.logger.Sync()
}
