package main

import (
	"log/slog"
	"os"

	"soleondash/internal/config"
	"soleondash/internal/host"
	"soleondash/internal/soleon"
	"soleondash/internal/telemetry"
)

// upstream is an event source that also accepts vehicle commands.
type upstream interface {
	host.Source
	soleon.Upstream
}

// newUpstream builds the configured event source and, if requested, the
// recorder for its events. The cleanup function closes any files.
func newUpstream(cfg *config.Config, log *slog.Logger) (upstream, host.Recorder, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	var src upstream
	switch cfg.Upstream.Source {
	case "replay":
		p, f, err := telemetry.OpenReplay(cfg.Upstream.ReplayFile, cfg.Upstream.ReplaySpeed, log)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, f.Close)
		src = p
	default:
		src = telemetry.NewGenerator(telemetry.GeneratorConfig{
			InitialLevel: cfg.Upstream.InitialLevel,
			SprayRate:    cfg.Upstream.SprayRate,
			Noise:        cfg.Upstream.Noise,
			ForeignRate:  cfg.Upstream.ForeignRate,
			Interval:     cfg.Producer.MessageInterval,
			Seed:         cfg.Upstream.Seed,
		})
	}

	var rec host.Recorder
	if cfg.Upstream.RecordFile != "" {
		f, err := os.Create(cfg.Upstream.RecordFile)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		closers = append(closers, f.Close)
		rec = telemetry.NewEventLog(f)
	}
	return src, rec, cleanup, nil
}
