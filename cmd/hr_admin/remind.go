package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/hr-admin/internal/db"
	"github.com/jonathan/hr-admin/internal/notify"
	"github.com/jonathan/hr-admin/internal/onboarding"
)

var remindWithin time.Duration

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send reminders for onboarding tasks that are due soon",
	Long: `Notify the assignees of pending and in-progress onboarding tasks due within
the reminder window. Each task is reminded once until its due date changes.
Run it periodically, for example from cron.`,
	RunE: runRemind,
}

func init() {
	remindCmd.Flags().DurationVar(&remindWithin, "within", 0, "Reminder window (overrides onboarding.reminder_window)")
	rootCmd.AddCommand(remindCmd)
}

func runRemind(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	within := cfg.Onboarding.ReminderWindow
	if cmd.Flags().Changed("within") {
		within = remindWithin
	}
	if within <= 0 {
		return fmt.Errorf("reminder window must be positive, got %s", within)
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	notifier, err := notify.FromConfig(ctx, cfg.Notify, database, log)
	if err != nil {
		return fmt.Errorf("failed to create notifier: %w", err)
	}

	tasks := onboarding.NewService(database,
		onboarding.WithNotifier(notifier),
		onboarding.WithLogger(log))
	sent, err := tasks.SendReminders(ctx, within)
	if err != nil {
		return fmt.Errorf("failed to send reminders: %w", err)
	}

	log.Info("reminders sent", zap.Int("count", sent), zap.Duration("within", within))
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %d reminder(s)\n", sent)
	return nil
}
