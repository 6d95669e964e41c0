package soleon

import (
	"log/slog"
	"sync"
	"time"

	"soleondash/internal/metrics"
	"soleondash/internal/telemetry"
)

// archiveQueueSize is the number of flushed batches that may wait for a
// slow archive before new ones are dropped.
const archiveQueueSize = 16

// archiveDrainTimeout bounds how long close waits for queued batches.
const archiveDrainTimeout = 5 * time.Second

// archiver stores flushed batches on its own goroutine so the idle tick
// never waits on a writer.
type archiver struct {
	w       ArchiveWriter
	rows    chan []telemetry.ArchiveRow
	done    chan struct{}
	once    sync.Once
	metrics *metrics.Metrics
	log     *slog.Logger
}

func newArchiver(w ArchiveWriter, m *metrics.Metrics, log *slog.Logger) *archiver {
	a := &archiver{
		w:       w,
		rows:    make(chan []telemetry.ArchiveRow, archiveQueueSize),
		done:    make(chan struct{}),
		metrics: m,
		log:     log,
	}
	go a.run()
	return a
}

// enqueue hands rows to the writer goroutine without blocking. It must not
// be called after close.
func (a *archiver) enqueue(rows []telemetry.ArchiveRow) {
	select {
	case a.rows <- rows:
	default:
		a.metrics.ArchiveDropped.Inc()
		a.log.Warn("archive behind, dropping batch", "rows", len(rows))
	}
}

func (a *archiver) run() {
	defer close(a.done)
	for rows := range a.rows {
		if err := a.w.WriteBatch(rows); err != nil {
			a.metrics.ArchiveErrors.Inc()
			a.log.Error("archive write failed", "rows", len(rows), "err", err)
		}
	}
}

// close stops accepting batches and waits for the queued ones to be written,
// up to archiveDrainTimeout.
func (a *archiver) close() {
	a.once.Do(func() {
		close(a.rows)
		select {
		case <-a.done:
		case <-time.After(archiveDrainTimeout):
			a.log.Warn("archive still writing, giving up", "pending", len(a.rows))
		}
	})
}
