// Package host drives the sprayer module the way a ground station would:
// upstream events and an idle tick on one goroutine, the dashboard in a
// child process.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"soleondash/internal/soleon"
	"soleondash/internal/telemetry"
)

// Source delivers upstream events until ctx is done or it runs dry.
type Source interface {
	Run(ctx context.Context, out chan<- telemetry.Event) error
}

// Recorder stores upstream events for later replay.
type Recorder interface {
	Record(telemetry.Event) error
}

// Options configures a Runner.
type Options struct {
	IdlePeriod time.Duration
	Recorder   Recorder
	Logger     *slog.Logger
}

const defaultIdlePeriod = 10 * time.Millisecond

// Runner feeds a Module from a Source and calls its idle hook.
type Runner struct {
	module *soleon.Module
	source Source
	opts   Options
	log    *slog.Logger
}

// NewRunner creates a runner for module fed by source.
func NewRunner(module *soleon.Module, source Source, opts Options) *Runner {
	if opts.IdlePeriod <= 0 {
		opts.IdlePeriod = defaultIdlePeriod
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		module: module,
		source: source,
		opts:   opts,
		log:    opts.Logger.With("component", "host"),
	}
}

// Run loads the module and drives it until ctx is done or the dashboard
// goes away. The module is shut down on return. A source that runs dry
// leaves the dashboard showing the last reading.
func (r *Runner) Run(ctx context.Context) error {
	defer r.module.Shutdown()

	if err := r.module.Load(); err != nil {
		// fire-and-forget, as on the vehicle link
		r.log.Warn("status stream request failed", "err", err)
	}

	srcCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan telemetry.Event, 64)
	srcDone := make(chan error, 1)
	go func() { srcDone <- r.source.Run(srcCtx, events) }()

	ticker := time.NewTicker(r.opts.IdlePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("host stopping", "reason", ctx.Err())
			return nil
		case ev := <-events:
			r.record(ev)
			r.module.OnUpstreamEvent(ev)
		case err := <-srcDone:
			srcDone = nil
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("upstream: %w", err)
			}
			r.log.Info("upstream finished")
		case now := <-ticker.C:
			if r.module.IdleTick(now) {
				r.log.Info("dashboard gone, unloading module")
				return nil
			}
		}
	}
}

func (r *Runner) record(ev telemetry.Event) {
	if r.opts.Recorder == nil {
		return
	}
	if err := r.opts.Recorder.Record(ev); err != nil {
		r.log.Warn("event record failed", "err", err)
	}
}
