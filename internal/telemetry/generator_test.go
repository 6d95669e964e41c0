package telemetry

import (
	"testing"
	"time"
)

func newTestGenerator(cfg GeneratorConfig) (*Generator, *time.Time) {
	clock := time.Unix(1000, 0)
	g := NewGenerator(cfg)
	g.now = func() time.Time { return clock }
	g.boot = clock
	g.last = clock
	return g, &clock
}

func TestGeneratorDrainsBySprayRate(t *testing.T) {
	g, clock := newTestGenerator(GeneratorConfig{InitialLevel: 80, SprayRate: 2, Seed: 1})

	*clock = clock.Add(500 * time.Millisecond)
	ev := g.Next()
	if ev.Type != EventStatus {
		t.Fatalf("expected status event, got %q", ev.Type)
	}
	if ev.SoleonValue != 70 {
		t.Errorf("expected level 70 after 5 steps at 2%%, got %v", ev.SoleonValue)
	}
	if ev.TimeBootMS != 500 {
		t.Errorf("expected boot time 500ms, got %d", ev.TimeBootMS)
	}
}

func TestGeneratorRefillsWhenEmpty(t *testing.T) {
	g, clock := newTestGenerator(GeneratorConfig{InitialLevel: 10, SprayRate: 5, Seed: 1})

	*clock = clock.Add(300 * time.Millisecond)
	ev := g.Next()
	if ev.SoleonValue != 10 {
		t.Errorf("expected refill to 10, got %v", ev.SoleonValue)
	}
}

func TestGeneratorForeignTraffic(t *testing.T) {
	g, _ := newTestGenerator(GeneratorConfig{ForeignRate: 1, Seed: 1})
	ev := g.Next()
	if ev.Type == EventStatus {
		t.Fatalf("expected non-status event")
	}
	if _, err := Decode(ev); err == nil {
		t.Fatalf("expected foreign event to be rejected by Decode")
	}
}

func TestGeneratorCommands(t *testing.T) {
	g, _ := newTestGenerator(GeneratorConfig{})
	if err := g.SetSprayRate(3.5); err != nil {
		t.Fatalf("SetSprayRate: %v", err)
	}
	if g.SprayRate() != 3.5 {
		t.Errorf("expected spray rate 3.5, got %v", g.SprayRate())
	}
	if err := g.SetSprayRate(-1); err == nil {
		t.Errorf("expected negative spray rate to fail")
	}
	if err := g.SetMessageInterval(StatusMessageID, 200*time.Millisecond); err != nil {
		t.Fatalf("SetMessageInterval: %v", err)
	}
	// a second update must not block while the first is still pending
	if err := g.SetMessageInterval(StatusMessageID, 100*time.Millisecond); err != nil {
		t.Fatalf("SetMessageInterval: %v", err)
	}
	if d := <-g.reset; d != 100*time.Millisecond {
		t.Errorf("expected pending interval 100ms, got %s", d)
	}
	if err := g.SetMessageInterval(1, time.Second); err == nil {
		t.Errorf("expected unknown message id to fail")
	}
}
