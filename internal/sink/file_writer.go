package sink

import (
	"encoding/json"
	"os"

	"soleondash/internal/telemetry"
)

// FileWriter writes archive rows to a JSONL file.
type FileWriter struct {
	f   *os.File
	enc *json.Encoder
}

// NewFileWriter creates (or truncates) path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{f: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single row.
func (w *FileWriter) Write(row telemetry.ArchiveRow) error {
	return w.enc.Encode(row)
}

// WriteBatch logs multiple rows.
func (w *FileWriter) WriteBatch(rows []telemetry.ArchiveRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	return w.f.Close()
}
