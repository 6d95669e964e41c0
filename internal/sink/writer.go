// Package sink stores readings the host has streamed to the dashboard.
package sink

import (
	"errors"
	"sync/atomic"
	"time"

	"soleondash/internal/telemetry"
)

// ReadingWriter is an interface to support different archive outputs.
type ReadingWriter interface {
	Write(telemetry.ArchiveRow) error
}

// Optional: writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.ArchiveRow) error
}

// WriteBatch writes rows to w, in one call if w supports batches.
func WriteBatch(w ReadingWriter, rows []telemetry.ArchiveRow) error {
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(rows)
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// ErrLinkClosed is returned by a closed Link.
var ErrLinkClosed = errors.New("sink link closed")

// Link streams batches straight into a writer instead of a dashboard
// process. It never closes on its own.
type Link struct {
	w       ReadingWriter
	session string
	now     func() time.Time
	closed  atomic.Bool
}

// NewLink creates a Link writing to w.
func NewLink(w ReadingWriter, session string) *Link {
	return &Link{w: w, session: session, now: time.Now}
}

// Send writes the batch as archive rows.
func (l *Link) Send(b telemetry.Batch) error {
	if l.closed.Load() {
		return ErrLinkClosed
	}
	if len(b) == 0 {
		return nil
	}
	return WriteBatch(l.w, telemetry.NewArchiveRows(l.session, b, l.now()))
}

// IsClosed reports whether Close was called.
func (l *Link) IsClosed() bool { return l.closed.Load() }

// Close stops the link.
func (l *Link) Close() error {
	l.closed.Store(true)
	return nil
}
