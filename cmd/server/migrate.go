package main

import (
	"fmt"

	"studyboard/internal/config"
	"studyboard/internal/migrations"
	"studyboard/internal/repository"

	"github.com/spf13/cobra"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()

		if cfg.DBDriver == config.DriverSQLite {
			// SQLite schemas come from the models.
			db, err := repository.Open(cfg, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			log.WithField("path", cfg.SQLitePath).Info("✅ SQLite schema migrated")
			return nil
		}
		return migrations.Up(cfg.PostgresURL(), log)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()

		if cfg.DBDriver != config.DriverPostgres {
			return fmt.Errorf("migrate down is only supported for %s", config.DriverPostgres)
		}
		return migrations.Down(cfg.PostgresURL(), downSteps, log)
	},
}

func init() {
	migrateDownCmd.Flags().IntVarP(&downSteps, "steps", "n", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}
