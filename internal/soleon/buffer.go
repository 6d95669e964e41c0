package soleon

import (
	"time"

	"golang.org/x/time/rate"

	"soleondash/internal/telemetry"
)

// Sender delivers a batch to the dashboard.
type Sender interface {
	Send(telemetry.Batch) error
}

// DefaultFPS is the dashboard update rate the buffer paces itself to.
const DefaultFPS = 10.0

// SendInterval returns the minimum spacing between flushes for fps, a little
// under one frame so that every dashboard tick finds fresh data.
func SendInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Duration(float64(time.Second) / fps * 0.9)
}

// Buffer collects readings between flushes and hands them to a Sender as one
// batch, at most once per interval. It owns no goroutine or timer; the
// caller drives FlushIfDue from its own loop.
type Buffer struct {
	pending  telemetry.Batch
	out      Sender
	interval time.Duration
	limiter  *rate.Limiter
}

// NewBuffer creates a buffer flushing to out at most fps times per second.
func NewBuffer(out Sender, fps float64) *Buffer {
	interval := SendInterval(fps)
	return &Buffer{
		out:      out,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Interval returns the configured flush spacing.
func (b *Buffer) Interval() time.Duration { return b.interval }

// Len returns the number of readings waiting for the next flush.
func (b *Buffer) Len() int { return len(b.pending) }

// Record appends a reading to the pending batch.
func (b *Buffer) Record(r telemetry.Reading) {
	b.pending = append(b.pending, r)
}

// FlushIfDue sends everything recorded since the last flush if the interval
// has elapsed at now. It returns the batch it sent, or nil. An empty buffer
// sends nothing and leaves the flush clock untouched. On a send error the
// pending readings are dropped.
func (b *Buffer) FlushIfDue(now time.Time) (telemetry.Batch, error) {
	if len(b.pending) == 0 {
		return nil, nil
	}
	if !b.limiter.AllowN(now, 1) {
		return nil, nil
	}
	batch := b.pending
	b.pending = nil
	if err := b.out.Send(batch); err != nil {
		return nil, err
	}
	return batch, nil
}
