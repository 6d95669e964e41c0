package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soleondash/internal/grafana"
)

var (
	grafanaOut   string
	grafanaTable string
)

var grafanaCmd = &cobra.Command{
	Use:   "grafana",
	Short: "Render the Grafana dashboard for the level archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		table := grafanaTable
		if table == "" {
			table = cfg.Archive.Greptime.Table
		}
		if err := grafana.Render(grafanaOut, table); err != nil {
			return fmt.Errorf("render grafana dashboard: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "dashboards written to %s\n", grafanaOut)
		return nil
	},
}

func init() {
	grafanaCmd.Flags().StringVar(&grafanaOut, "out", "grafana", "Directory to write dashboards to")
	grafanaCmd.Flags().StringVar(&grafanaTable, "table", "", "Archive table (defaults to archive.greptime.table)")
}
