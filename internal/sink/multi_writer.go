package sink

import "soleondash/internal/telemetry"

// MultiWriter fan-outs archive rows to multiple writers.
type MultiWriter struct {
	writers []ReadingWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...ReadingWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Write sends a row to all writers.
func (mw *MultiWriter) Write(row telemetry.ArchiveRow) error {
	for _, w := range mw.writers {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.ArchiveRow) error {
	for _, w := range mw.writers {
		if err := WriteBatch(w, rows); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of writers.
func (mw *MultiWriter) Len() int { return len(mw.writers) }
