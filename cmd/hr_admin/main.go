// Package main provides the entry point for the HR administration API server
// and its maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/hr-admin/internal/config"
	"github.com/jonathan/hr-admin/internal/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "hr_admin",
	Short: "HR Administration API Server",
	Long:  "hr_admin manages employees, departments, candidates and onboarding tasks through a REST API.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file (default: ./hr_admin.yaml if present)")
}

// loadConfig reads the configuration and builds the logger it asks for.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
