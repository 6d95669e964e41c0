// Writer implementation printing archived readings to STDOUT

package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"soleondash/internal/gauge"
	"soleondash/internal/telemetry"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorBlue   = "\x1b[34m"
	colorCyan   = "\x1b[36m"
	colorGray   = "\x1b[90m"
)

// ANSI approximations of the dial palette.
var bandColors = map[gauge.Band]string{
	gauge.Low:     colorRed,
	gauge.LowMid:  colorYellow,
	gauge.Mid:     colorCyan,
	gauge.MidHigh: colorCyan,
	gauge.High:    colorGreen,
}

// StdoutWriter prints rows as JSON, or as coloured text on a terminal.
type StdoutWriter struct {
	out      io.Writer
	colorize bool
}

// NewStdoutWriter writes to os.Stdout and colourises when it is a terminal.
func NewStdoutWriter() *StdoutWriter {
	return &StdoutWriter{out: os.Stdout, colorize: term.IsTerminal(int(os.Stdout.Fd()))}
}

// Write outputs a single row.
func (w *StdoutWriter) Write(row telemetry.ArchiveRow) error {
	if !w.colorize {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w.out, string(data))
		return err
	}
	value, band := gauge.Map(row.Level)
	_, err := fmt.Fprintf(w.out, "%s[%s]%s %ssession=%s%s %sboot_ms=%d%s %slevel=%.2f%s %sband=%s%s\n",
		colorGray, row.Timestamp.Format(time.RFC3339Nano), colorReset,
		colorBlue, row.SessionID, colorReset,
		colorGray, row.BootMS, colorReset,
		bandColors[band], value, colorReset,
		bandColors[band], band, colorReset)
	return err
}

// WriteBatch outputs multiple rows.
func (w *StdoutWriter) WriteBatch(rows []telemetry.ArchiveRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
