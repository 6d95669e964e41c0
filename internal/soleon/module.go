// Package soleon is the host side of the sprayer dashboard: it buffers
// decoded level readings and streams them to the dashboard process.
package soleon

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"soleondash/internal/metrics"
	"soleondash/internal/telemetry"
)

// ErrUnknownCommand is returned for commands the module does not handle.
var ErrUnknownCommand = errors.New("unknown command")

// Link is the producer end of the dashboard channel.
type Link interface {
	Sender
	IsClosed() bool
	Close() error
}

// Upstream accepts commands for the vehicle. Calls are fire-and-forget.
type Upstream interface {
	SetMessageInterval(msgID uint32, interval time.Duration) error
	SetSprayRate(rate float64) error
}

// ArchiveWriter stores batches that were sent to the dashboard.
type ArchiveWriter interface {
	WriteBatch([]telemetry.ArchiveRow) error
}

// Target addresses the vehicle component the module talks to.
type Target struct {
	System    uint8
	Component uint8
}

// Options configures a Module.
type Options struct {
	FPS             float64
	MessageInterval time.Duration
	Target          Target
	Session         string
	Archive         ArchiveWriter
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
}

// Snapshot is the externally visible module state.
type Snapshot struct {
	Session      string            `json:"session"`
	Reading      telemetry.Reading `json:"reading"`
	Valid        bool              `json:"valid"`
	SprayRate    float64           `json:"spray_rate"`
	FPS          float64           `json:"fps"`
	DashboardOff bool              `json:"dashboard_closed"`
}

// Module owns the producer end of the dashboard link and the buffer that
// feeds it. The host calls OnUpstreamEvent for every upstream event and
// IdleTick from its idle loop; commands and status may come from other
// goroutines.
type Module struct {
	mu        sync.Mutex
	link      Link
	buf       *Buffer
	upstream  Upstream
	opts      Options
	last      telemetry.Reading
	haveLast  bool
	sprayRate float64
	unloading bool
	closeOnce sync.Once
	archiver  *archiver // nil without an archive
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// New creates a module streaming to link and commanding upstream.
func New(link Link, upstream Upstream, opts Options) *Module {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.MessageInterval <= 0 {
		opts.MessageInterval = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	m := &Module{
		link:     link,
		buf:      NewBuffer(link, opts.FPS),
		upstream: upstream,
		opts:     opts,
		log:      opts.Logger.With("component", "soleon", "session", opts.Session),
		metrics:  opts.Metrics,
	}
	if opts.Archive != nil {
		m.archiver = newArchiver(opts.Archive, m.metrics, m.log)
	}
	return m
}

// Load asks upstream to stream the status message at the configured interval.
func (m *Module) Load() error {
	m.log.Info("requesting status stream",
		"msg_id", telemetry.StatusMessageID,
		"interval", m.opts.MessageInterval,
		"send_interval", m.buf.Interval())
	if err := m.upstream.SetMessageInterval(telemetry.StatusMessageID, m.opts.MessageInterval); err != nil {
		return fmt.Errorf("set message interval: %w", err)
	}
	return nil
}

// OnUpstreamEvent decodes ev and buffers its reading. Events without a
// reading are dropped.
func (m *Module) OnUpstreamEvent(ev telemetry.Event) {
	r, err := telemetry.Decode(ev)
	if err != nil {
		m.metrics.MalformedEvents.Inc()
		m.log.Debug("dropping event", "err", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = r
	m.haveLast = true
	m.metrics.LastLevel.Set(r.Level)
	if m.unloading {
		return
	}
	m.buf.Record(r)
	m.metrics.ReadingsRecorded.Inc()
}

// IdleTick flushes the buffer if due and reports whether the dashboard has
// gone away, in which case the host should stop driving the module.
func (m *Module) IdleTick(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unloading {
		return true
	}

	batch, err := m.buf.FlushIfDue(now)
	if err != nil {
		m.metrics.SendErrors.Inc()
		m.log.Warn("dashboard send failed", "err", err)
	}
	if len(batch) > 0 {
		m.metrics.BatchesSent.Inc()
		m.metrics.BatchSize.Observe(float64(len(batch)))
		m.archive(batch, now)
	}

	if m.link.IsClosed() {
		m.unloading = true
		m.metrics.ConsumerGone.Set(1)
		m.log.Info("dashboard closed, module needs unloading")
		return true
	}
	return false
}

// archive queues the batch for the archive writer. Called with m.mu held
// and before unloading, so the archiver is still open.
func (m *Module) archive(batch telemetry.Batch, now time.Time) {
	if m.archiver == nil {
		return
	}
	m.archiver.enqueue(telemetry.NewArchiveRows(m.opts.Session, batch, now))
}

// NeedsUnloading reports whether the dashboard has gone away.
func (m *Module) NeedsUnloading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unloading
}

// Shutdown releases the producer end of the link and lets the archive
// finish the batches already queued. The dashboard observes end of stream
// and closes itself.
func (m *Module) Shutdown() error {
	var err error
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.unloading = true
		m.mu.Unlock()
		err = m.link.Close()
		m.log.Info("dashboard link released")
		if m.archiver != nil {
			m.archiver.close()
		}
	})
	return err
}

// SetSprayRate forwards a spray rate in percent per 100ms upstream.
func (m *Module) SetSprayRate(rate float64) error {
	m.mu.Lock()
	m.sprayRate = rate
	m.mu.Unlock()
	m.log.Info("setting spray rate", "rate", rate)
	return m.upstream.SetSprayRate(rate)
}

// Snapshot returns the last reading and settings.
func (m *Module) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Session:      m.opts.Session,
		Reading:      m.last,
		Valid:        m.haveLast,
		SprayRate:    m.sprayRate,
		FPS:          m.opts.FPS,
		DashboardOff: m.unloading,
	}
}

// Status describes the sprayer state as text.
func (m *Module) Status() string {
	s := m.Snapshot()
	return fmt.Sprintf("Sprayer status: fluid_level=%s; time_stamp=%d;\n"+
		"                sprayer rate=%s;\n"+
		"Link: target_system=%d; target_component=%d; update_rate=%s fps;\n",
		formatFloat(s.Reading.Level), s.Reading.Timestamp,
		formatFloat(s.SprayRate),
		m.opts.Target.System, m.opts.Target.Component, formatFloat(s.FPS))
}

// Usage lists the module commands.
func Usage() string {
	return "Usage: soleon <status>  --> show status information\n" +
		"       sprayrate <x.x>  --> spray rate in % per 100mSec"
}

const sprayRateUsage = "Usage: sprayrate <the rate in %/100mSec>"

// Command runs one of the module commands and returns its output.
func (m *Module) Command(name string, args []string) (string, error) {
	switch name {
	case "soleon":
		if len(args) == 1 && args[0] == "status" {
			return m.Status(), nil
		}
		return Usage(), nil
	case "sprayrate":
		if len(args) == 0 {
			return sprayRateUsage, nil
		}
		rate, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return sprayRateUsage, fmt.Errorf("parse spray rate %q: %w", args[0], err)
		}
		if err := m.SetSprayRate(rate); err != nil {
			return "", err
		}
		return "", nil
	}
	return Usage(), fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
