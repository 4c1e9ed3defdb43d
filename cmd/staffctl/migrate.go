package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/observability"
	"github.com/shiftdesk/staff-scheduler/internal/persistence"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(mg *persistence.Migrator) error { return mg.Up() })
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(mg *persistence.Migrator) error { return mg.Down() })
		},
	})
	return cmd
}

// withMigrator skips the pool setup; migrate opens its own connection.
func withMigrator(fn func(*persistence.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	mg, err := persistence.NewMigrator(cfg.Postgres.DSN, logger)
	if err != nil {
		return err
	}
	defer mg.Close()
	return fn(mg)
}
