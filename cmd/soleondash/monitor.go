package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"soleondash/internal/host"
	"soleondash/internal/logging"
	"soleondash/internal/metrics"
	"soleondash/internal/sink"
	"soleondash/internal/soleon"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print streamed sprayer levels without the dashboard",
	Long:  "monitor runs the same buffered stream as run but writes each batch to STDOUT instead of a dashboard process.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, closeLog, err := hostLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer closeLog()

		reg := prometheus.NewRegistry()
		archive, closeArchive, err := newArchive(cfg, log)
		if err != nil {
			return err
		}
		defer closeArchive()

		src, rec, closeSrc, err := newUpstream(cfg, log)
		if err != nil {
			return err
		}
		defer closeSrc()

		session := uuid.NewString()
		link := sink.NewLink(sink.NewStdoutWriter(), session)
		module := soleon.New(link, src, moduleOptions(cfg, session, archive, metrics.New(reg), log))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		if cfg.Admin.Enabled {
			startAdmin(ctx, cfg, module, reg)
		}
		return host.NewRunner(module, src, host.Options{
			IdlePeriod: cfg.Producer.IdlePeriod,
			Recorder:   rec,
			Logger:     log,
		}).Run(ctx)
	},
}
