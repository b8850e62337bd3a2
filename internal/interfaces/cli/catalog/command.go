package catalog

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sbn-software/samsync/internal/infrastructure/database"
	"github.com/sbn-software/samsync/internal/infrastructure/migration"
	"github.com/sbn-software/samsync/internal/interfaces/cli/app"
	"github.com/sbn-software/samsync/internal/shared/config"
	"github.com/sbn-software/samsync/internal/shared/constants"
	"github.com/sbn-software/samsync/internal/shared/logger"
)

const (
	sideSource = "source"
	sideTarget = "target"
)

var (
	side  string
	steps int
)

// NewCommand manages the schema of SQL catalog mirrors.
func NewCommand(flags *app.GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "SQL catalog schema tools",
		Long:  `Create and inspect the schema of a catalog configured with the sql backend.`,
	}

	cmd.PersistentFlags().StringVar(&side, "side", sideTarget, "Catalog to operate on (source, target)")

	cmd.AddCommand(
		newUpCommand(flags),
		newDownCommand(flags),
		newStatusCommand(flags),
	)

	return cmd
}

func newUpCommand(flags *app.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(flags, func(ctx context.Context, cfg *config.DatabaseConfig, db *gorm.DB, log logger.Interface) error {
				if err := migration.NewManager(cfg, log).Migrate(ctx, db); err != nil {
					log.Errorw("migration failed", "error", err)
					return fmt.Errorf("migration failed: %w", err)
				}
				log.Infow("catalog schema is up to date")
				return nil
			})
		},
	}
}

func newDownCommand(flags *app.GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(flags, func(ctx context.Context, cfg *config.DatabaseConfig, db *gorm.DB, log logger.Interface) error {
				strategy := migration.NewGooseStrategy(cfg.Driver, log)
				if err := strategy.MigrateDown(ctx, db, steps); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				log.Infow("rollback completed", "steps", steps)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to roll back")

	return cmd
}

func newStatusCommand(flags *app.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show schema migration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(flags, func(ctx context.Context, cfg *config.DatabaseConfig, db *gorm.DB, log logger.Interface) error {
				manager := migration.NewManagerWithStrategy(migration.NewGooseStrategy(cfg.Driver, log), log)
				version, err := manager.Version(ctx, db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d\n", version)
				return manager.Status(ctx, db)
			})
		},
	}
}

func withDatabase(flags *app.GlobalFlags, fn func(context.Context, *config.DatabaseConfig, *gorm.DB, logger.Interface) error) error {
	cfg, log, err := app.Bootstrap(flags)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var catalogCfg *config.CatalogConfig
	switch side {
	case sideSource:
		catalogCfg = &cfg.Source
	case sideTarget:
		catalogCfg = &cfg.Target
	default:
		return fmt.Errorf("unknown side %q (expected %s or %s)", side, sideSource, sideTarget)
	}
	if catalogCfg.Backend != constants.BackendSQL {
		return fmt.Errorf("%s catalog uses the %q backend; schema tools need %q", side, catalogCfg.Backend, constants.BackendSQL)
	}

	log = log.With("catalog", catalogCfg.Experiment, "side", side)
	db, err := database.Open(&catalogCfg.Database, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx, stop := app.SignalContext()
	defer stop()
	return fn(ctx, &catalogCfg.Database, db, log)
}
