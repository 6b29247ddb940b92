package main

import (
	"studyboard/internal/config"
	"studyboard/internal/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studyboard",
	Short: "Studyboard API server and maintenance commands",
	Long: `Studyboard serves boards, lists and tasks for students over HTTP,
with plan quotas and live updates over server-sent events.

Configuration is read from the environment and an optional .env file.

Examples:
  # Start the API
  studyboard serve

  # Apply PostgreSQL migrations
  studyboard migrate up

  # Recompute usage counters from stored rows
  studyboard reconcile`,
	SilenceUsage: true,
}

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug|info|warn|error)")

	rootCmd.AddCommand(serveCmd, migrateCmd, reconcileCmd)
}

// setup loads configuration and builds the process logger.
func setup() (*config.Config, *logrus.Logger) {
	cfg := config.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Production: cfg.IsProduction()})
	return cfg, log
}
