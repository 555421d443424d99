/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log/slog"
	"os"

	"github.com/acquisitions/apiserver/config"
	"github.com/acquisitions/apiserver/internal/logging"
	"github.com/spf13/cobra"
)

const serviceName = "acquisitions"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "acquisitions",
	Short: "User account API server",
	Long: `Acquisitions serves the user account API: sign-up, sign-in and
role-aware account management backed by PostgreSQL.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and installs the process-wide logger.
func setup() (config.Config, *slog.Logger) {
	cfg := config.LoadConfig()
	logger := logging.New(logging.Config{
		Service: serviceName,
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
	})
	return cfg, logger
}
