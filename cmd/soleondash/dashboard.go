package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soleondash/internal/dashboard"
	"soleondash/internal/ipc"
	"soleondash/internal/logging"
)

var dashboardCmd = &cobra.Command{
	Use:    "dashboard",
	Short:  "Show the sprayer gauge (started by run)",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		link, session, err := ipc.OpenInherited()
		if err != nil {
			return fmt.Errorf("dashboard must be started by 'soleondash run': %w", err)
		}
		defer link.Close()

		log := logging.Discard()
		if cfg.Dashboard.LogFile != "" {
			level, err := logging.ParseLevel(cfg.Logging.Level)
			if err != nil {
				return err
			}
			w := logging.NewFile(logging.FileOptions{Path: cfg.Dashboard.LogFile, MaxSizeMB: cfg.Logging.MaxSizeMB})
			defer w.Close()
			log = logging.New(w, level).With("process", "dashboard", "session", session)
		}

		ctx := logging.NewContext(cmd.Context(), log)
		return dashboard.Run(ctx, link, dashboard.Options{
			Title:   cfg.Dashboard.Title,
			Period:  cfg.Dashboard.RenderPeriod,
			Width:   cfg.Dashboard.Width,
			Session: session,
		})
	},
}
