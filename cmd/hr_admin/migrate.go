package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/hr-admin/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	applied, err := database.Migrate(ctx, log)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
	return nil
}
