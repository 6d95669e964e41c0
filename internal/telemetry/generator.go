package telemetry

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// GeneratorConfig tunes the simulated sprayer.
type GeneratorConfig struct {
	InitialLevel float64       // percent at boot and after a refill
	SprayRate    float64       // percent drained per 100ms
	Noise        float64       // peak sensor noise in percent
	ForeignRate  float64       // share of non-status traffic on the link
	Interval     time.Duration // initial status interval
	Seed         int64
}

// Generator simulates the sprayer status stream. It drains the tank by the
// commanded spray rate and refills it when empty.
type Generator struct {
	mu        sync.Mutex
	level     float64
	initial   float64
	sprayRate float64
	noise     float64
	foreign   float64
	interval  time.Duration
	boot      time.Time
	last      time.Time
	rng       *rand.Rand
	now       func() time.Time
	reset     chan time.Duration
}

// NewGenerator creates a simulated upstream that booted now.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.InitialLevel <= 0 {
		cfg.InitialLevel = 100
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Generator{
		level:     cfg.InitialLevel,
		initial:   cfg.InitialLevel,
		sprayRate: cfg.SprayRate,
		noise:     cfg.Noise,
		foreign:   cfg.ForeignRate,
		interval:  cfg.Interval,
		rng:       rand.New(rand.NewSource(seed)),
		now:       time.Now,
		reset:     make(chan time.Duration, 1),
	}
	g.boot = g.now()
	g.last = g.boot
	return g
}

// Next advances the simulation to the current time and returns one event.
func (g *Generator) Next() Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	steps := float64(now.Sub(g.last)) / float64(100*time.Millisecond)
	g.last = now

	g.level -= g.sprayRate * steps
	if g.level <= 0 {
		g.level = g.initial
	}

	if g.foreign > 0 && g.rng.Float64() < g.foreign {
		return Event{Type: "HEARTBEAT", TimeBootMS: now.Sub(g.boot).Milliseconds(), ReceivedAt: now}
	}

	value := g.level
	if g.noise > 0 {
		value += (g.rng.Float64()*2 - 1) * g.noise
	}
	return Event{
		Type:        EventStatus,
		TimeBootMS:  now.Sub(g.boot).Milliseconds(),
		SoleonValue: value,
		ReceivedAt:  now,
	}
}

// Run emits events on out at the current message interval until ctx is
// done. It always returns nil.
func (g *Generator) Run(ctx context.Context, out chan<- Event) error {
	g.mu.Lock()
	interval := g.interval
	g.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-g.reset:
			ticker.Reset(d)
		case <-ticker.C:
			select {
			case out <- g.Next():
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// SetMessageInterval changes how often the status message is streamed.
func (g *Generator) SetMessageInterval(msgID uint32, interval time.Duration) error {
	if msgID != StatusMessageID {
		return fmt.Errorf("message %d not supported", msgID)
	}
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s", interval)
	}
	g.mu.Lock()
	g.interval = interval
	g.mu.Unlock()

	for {
		select {
		case g.reset <- interval:
			return nil
		default:
			select {
			case <-g.reset:
			default:
			}
		}
	}
}

// SetSprayRate commands a new spray rate in percent per 100ms.
func (g *Generator) SetSprayRate(rate float64) error {
	if rate < 0 {
		return fmt.Errorf("invalid spray rate %v", rate)
	}
	g.mu.Lock()
	g.sprayRate = rate
	g.mu.Unlock()
	return nil
}

// SprayRate returns the commanded spray rate.
func (g *Generator) SprayRate() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sprayRate
}
