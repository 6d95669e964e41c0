package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soleondash/internal/config"
)

var (
	configPath string
	schemaPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "soleondash",
	Short: "Soleon sprayer dashboard",
	Long:  "soleondash streams the sprayer liquid level from the host to a terminal gauge running in its own process.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration selected by the persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, schemaPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration YAML (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "Path to CUE schema file (built-in schema when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(grafanaCmd)
}
