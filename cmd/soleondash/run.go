package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"soleondash/internal/admin"
	"soleondash/internal/config"
	"soleondash/internal/host"
	"soleondash/internal/logging"
	"soleondash/internal/metrics"
	"soleondash/internal/soleon"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Stream sprayer levels to the dashboard",
	Long:  "run decodes the sprayer status stream and shows the liquid level on a gauge in a separate dashboard process.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// STDOUT and STDERR belong to the dashboard.
		log, closeLog, err := hostLogger(cfg, io.Discard)
		if err != nil {
			return err
		}
		defer closeLog()
		slog.SetDefault(log)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

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

		child, err := host.StartDashboard(host.ChildOptions{Args: dashboardArgs()})
		if err != nil {
			return err
		}
		log = log.With("session", child.Session)
		log.Info("dashboard started", "fps", cfg.Producer.FPS, "upstream", cfg.Upstream.Source)

		module := soleon.New(child.Link, src, moduleOptions(cfg, child.Session, archive, metrics.New(reg), log))

		sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(logging.NewContext(sigCtx, log))
		defer cancel()

		if cfg.Admin.Enabled {
			startAdmin(ctx, cfg, module, reg)
		}

		runErr := host.NewRunner(module, src, host.Options{
			IdlePeriod: cfg.Producer.IdlePeriod,
			Recorder:   rec,
			Logger:     log,
		}).Run(ctx)
		cancel()

		waitErr := child.Wait()
		if runErr != nil {
			return runErr
		}
		if waitErr != nil && sigCtx.Err() == nil {
			return waitErr
		}
		log.Info("dashboard closed")
		return nil
	},
}

// dashboardArgs forwards the persistent flags to the dashboard process.
func dashboardArgs() []string {
	args := []string{"dashboard"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if schemaPath != "" {
		args = append(args, "--schema", schemaPath)
	}
	if logLevel != "" {
		args = append(args, "--log-level", logLevel)
	}
	return args
}

func moduleOptions(cfg *config.Config, session string, archive soleon.ArchiveWriter, m *metrics.Metrics, log *slog.Logger) soleon.Options {
	return soleon.Options{
		FPS:             cfg.Producer.FPS,
		MessageInterval: cfg.Producer.MessageInterval,
		Target: soleon.Target{
			System:    cfg.Producer.TargetSystem,
			Component: cfg.Producer.TargetComponent,
		},
		Session: session,
		Archive: archive,
		Metrics: m,
		Logger:  log,
	}
}

func startAdmin(ctx context.Context, cfg *config.Config, module *soleon.Module, reg *prometheus.Registry) {
	log := logging.FromContext(ctx)
	srv := admin.NewServer(module, reg)
	go func() {
		log.Info("admin listening", "addr", cfg.Admin.Addr)
		if err := srv.Start(ctx, cfg.Admin.Addr); err != nil {
			log.Error("admin server failed", "err", err)
		}
	}()
}
