// Package telemetry holds the sprayer readings and upstream events, and the
// sources that produce them.
package telemetry

import (
	"os"
	"time"
)

// Reading is one liquid level sample reported by the sprayer.
type Reading struct {
	Timestamp int64   `json:"ts"`    // milliseconds since upstream boot
	Level     float64 `json:"level"` // percent, not clamped
}

// Batch is a group of readings delivered together, in arrival order.
type Batch []Reading

// Last returns the most recent reading of the batch.
func (b Batch) Last() (Reading, bool) {
	if len(b) == 0 {
		return Reading{}, false
	}
	return b[len(b)-1], true
}

// Flatten concatenates batches preserving their order.
func Flatten(batches []Batch) Batch {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	out := make(Batch, 0, n)
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

// Event is a raw upstream message as delivered by the link decoder.
type Event struct {
	Type        string    `json:"type"`
	TimeBootMS  int64     `json:"time_boot_ms"`
	SoleonValue float64   `json:"soleon_value"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Upstream message identifiers.
const (
	EventStatus = "SO_STATUS"

	// StatusMessageID is the message id requested for streaming.
	StatusMessageID = 50080
)

// ArchiveRow is a reading as stored by archive writers.
type ArchiveRow struct {
	SessionID string    `json:"session_id"` // TAG
	Level     float64   `json:"level"`      // FIELD
	BootMS    int64     `json:"boot_ms"`    // FIELD
	Timestamp time.Time `json:"ts"`         // TIME INDEX
}

// ArchiveTableName holds the GreptimeDB table for archived readings.
// It defaults to "soleon_levels" and can be overridden with GREPTIMEDB_TABLE.
var ArchiveTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "soleon_levels"
}()

// NewArchiveRows converts a batch into archive rows stamped with ts.
func NewArchiveRows(session string, b Batch, ts time.Time) []ArchiveRow {
	rows := make([]ArchiveRow, len(b))
	for i, r := range b {
		rows[i] = ArchiveRow{
			SessionID: session,
			Level:     r.Level,
			BootMS:    r.Timestamp,
			Timestamp: ts.UTC(),
		}
	}
	return rows
}
