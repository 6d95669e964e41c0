// Package dashboard runs the consumer side of the sprayer link: a periodic
// render loop that shows the latest liquid level on a gauge.
package dashboard

import (
	"soleondash/internal/gauge"
	"soleondash/internal/telemetry"
)

// State is the lifecycle of a render loop.
type State int

const (
	Running State = iota
	Closing
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Closing:
		return "closing"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// Source is the consumer end of the link as seen by the render loop.
type Source interface {
	TryReceive() (telemetry.Batch, bool)
	CloseRequested() bool
	ProducerGone() bool
}

// DisplayState is what the gauge and readouts show.
type DisplayState struct {
	Value     float64    // clamped dial value
	Band      gauge.Band // sector of Value
	Level     float64    // raw level as reported
	Timestamp int64      // reading timestamp, shown as-is
	Valid     bool       // false until the first reading arrives
	Dropped   int        // readings superseded in the last drained tick
	Received  int        // readings drained since start
}

// Loop applies the newest reading from the link once per tick. It holds no
// timer; the owner calls Tick at its render period.
type Loop struct {
	src      Source
	state    State
	display  DisplayState
	teardown func()
}

// NewLoop creates a running loop. teardown runs once when the loop closes.
func NewLoop(src Source, teardown func()) *Loop {
	if teardown == nil {
		teardown = func() {}
	}
	return &Loop{src: src, teardown: teardown}
}

// State returns the lifecycle state.
func (l *Loop) State() State { return l.state }

// Display returns the current display state.
func (l *Loop) Display() DisplayState { return l.display }

// Tick runs one render step and reports whether the loop is still running.
// A close request, local or from the producer hanging up, is honoured
// before anything else on the tick and pending batches are left unread.
func (l *Loop) Tick() bool {
	if l.state != Running {
		return false
	}
	if l.src.CloseRequested() || l.src.ProducerGone() {
		l.state = Closing
		l.teardown()
		l.state = Terminated
		return false
	}

	var batches []telemetry.Batch
	for {
		b, ok := l.src.TryReceive()
		if !ok {
			break
		}
		batches = append(batches, b)
	}
	readings := telemetry.Flatten(batches)
	last, ok := readings.Last()
	if !ok {
		return true
	}

	l.display.Value, l.display.Band = gauge.Map(last.Level)
	l.display.Level = last.Level
	l.display.Timestamp = last.Timestamp
	l.display.Valid = true
	l.display.Dropped = len(readings) - 1
	l.display.Received += len(readings)
	return true
}
