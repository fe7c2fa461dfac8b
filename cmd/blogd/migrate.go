package main

import (
	"github.com/spf13/cobra"

	"blog/backend/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := setup()
		if err != nil {
			return err
		}
		defer closeLog()
		return db.MigrateUp(cfg.Database.URL, logger)
	},
}

var downSteps int

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := setup()
		if err != nil {
			return err
		}
		defer closeLog()
		return db.MigrateDown(cfg.Database.URL, downSteps, logger)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
