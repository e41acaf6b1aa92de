package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valoron/valoron/config"
	"github.com/valoron/valoron/internal/infrastructure/persistence/postgres"
	"github.com/valoron/valoron/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	var rollback, status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Progression.Store != config.StorePostgres {
				return fmt.Errorf("migrate requires PROGRESSION_STORE=postgres")
			}
			log := newLogger(cfg).With(logger.Component("migrate"))
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			db, err := connectPostgres(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			return runMigrate(ctx, postgres.NewMigrator(db), log, rollback, status)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the last applied migration")
	cmd.Flags().BoolVar(&status, "status", false, "list migrations and exit")
	return cmd
}

func runMigrate(ctx context.Context, m *postgres.Migrator, log *logger.Logger, rollback, status bool) error {
	switch {
	case status:
		migrations, err := m.Status(ctx)
		if err != nil {
			return err
		}
		for _, mig := range migrations {
			log.Info("migration",
				logger.Int("version", mig.Version),
				logger.String("name", mig.Name),
				logger.Bool("applied", mig.IsApplied),
			)
		}
		return nil
	case rollback:
		if err := m.Rollback(ctx); err != nil {
			return err
		}
		log.Info("rolled back last migration")
		return nil
	default:
		n, err := m.Migrate(ctx)
		if err != nil {
			return err
		}
		log.Info("database schema is up to date", logger.Int("applied", n))
		return nil
	}
}
