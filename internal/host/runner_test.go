package host

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"soleondash/internal/logging"
	"soleondash/internal/soleon"
	"soleondash/internal/telemetry"
)

type fakeLink struct {
	mu     sync.Mutex
	sent   []telemetry.Batch
	closed bool
	closes int
}

func (f *fakeLink) Send(b telemetry.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, b)
	return nil
}

func (f *fakeLink) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeLink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeLink) readings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(telemetry.Flatten(f.sent))
}

func (f *fakeLink) hangUp() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

type nopUpstream struct{}

func (nopUpstream) SetMessageInterval(uint32, time.Duration) error { return nil }
func (nopUpstream) SetSprayRate(float64) error                     { return nil }

// sliceSource emits its events and returns err.
type sliceSource struct {
	events []telemetry.Event
	err    error
}

func (s *sliceSource) Run(ctx context.Context, out chan<- telemetry.Event) error {
	for _, ev := range s.events {
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

type memRecorder struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (r *memRecorder) Record(ev telemetry.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func statusEvents(n int) []telemetry.Event {
	evs := make([]telemetry.Event, n)
	for i := range evs {
		evs[i] = telemetry.Event{Type: telemetry.EventStatus, TimeBootMS: int64(i * 100), SoleonValue: float64(100 - i)}
	}
	return evs
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startRunner(t *testing.T, link *fakeLink, src Source, rec Recorder) (context.CancelFunc, <-chan error) {
	t.Helper()
	m := soleon.New(link, nopUpstream{}, soleon.Options{FPS: 50, Logger: logging.Discard()})
	r := NewRunner(m, src, Options{IdlePeriod: 2 * time.Millisecond, Recorder: rec, Logger: logging.Discard()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return cancel, done
}

func TestRunnerStreamsUntilDashboardGone(t *testing.T) {
	link := &fakeLink{}
	rec := &memRecorder{}
	src := &sliceSource{events: append(statusEvents(5), telemetry.Event{Type: "HEARTBEAT"})}
	cancel, done := startRunner(t, link, src, rec)
	defer cancel()

	waitFor(t, "readings on the link", func() bool { return link.readings() == 5 })
	waitFor(t, "recorded events", func() bool { return rec.len() == 6 })
	link.hangUp()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop after dashboard went away")
	}
	if link.closes != 1 {
		t.Fatalf("expected link released once, got %d", link.closes)
	}
}

func TestRunnerStopsOnContext(t *testing.T) {
	link := &fakeLink{}
	cancel, done := startRunner(t, link, &sliceSource{}, nil)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner ignored cancellation")
	}
	if link.closes != 1 {
		t.Fatalf("link not released on stop")
	}
}

func TestRunnerSurfacesSourceError(t *testing.T) {
	link := &fakeLink{}
	cancel, done := startRunner(t, link, &sliceSource{err: errors.New("bad log line")}, nil)
	defer cancel()
	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "upstream: bad log line") {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop on source error")
	}
}
