package soleon

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"soleondash/internal/logging"
	"soleondash/internal/metrics"
	"soleondash/internal/telemetry"
)

// stuckArchive blocks every write until release is closed.
type stuckArchive struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	batches int
}

func newStuckArchive() *stuckArchive {
	return &stuckArchive{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (a *stuckArchive) WriteBatch(rows []telemetry.ArchiveRow) error {
	select {
	case a.started <- struct{}{}:
	default:
	}
	<-a.release
	a.mu.Lock()
	a.batches++
	a.mu.Unlock()
	return nil
}

func TestModuleSlowArchiveDoesNotStallTick(t *testing.T) {
	link := &fakeLink{}
	arch := newStuckArchive()
	met := metrics.New(prometheus.NewRegistry())
	m := New(link, &fakeUpstream{}, Options{FPS: 10, Archive: arch, Metrics: met, Logger: logging.Discard()})

	m.OnUpstreamEvent(status(0, 50))
	m.IdleTick(t0)
	select {
	case <-arch.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("archive writer never started")
	}

	// The writer is stuck on the first batch. Fill the queue and overflow it
	// by one; none of this may wait on the archive.
	start := time.Now()
	for i := 1; i <= archiveQueueSize+1; i++ {
		m.OnUpstreamEvent(status(int64(i), 50))
		if m.IdleTick(t0.Add(time.Duration(i) * 100 * time.Millisecond)) {
			t.Fatalf("dashboard reported gone")
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("tick loop stalled %s behind the archive", elapsed)
	}
	if len(link.batches) != archiveQueueSize+2 {
		t.Fatalf("expected %d batches on the link, got %d", archiveQueueSize+2, len(link.batches))
	}
	if got := testutil.ToFloat64(met.ArchiveDropped); got != 1 {
		t.Fatalf("expected 1 dropped archive batch, got %v", got)
	}

	close(arch.release)
	if err := m.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	arch.mu.Lock()
	defer arch.mu.Unlock()
	if arch.batches != archiveQueueSize+1 {
		t.Fatalf("expected %d archived batches, got %d", archiveQueueSize+1, arch.batches)
	}
}
