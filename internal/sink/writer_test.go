package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"soleondash/internal/telemetry"
)

type collectWriter struct{ rows []telemetry.ArchiveRow }

func (c *collectWriter) Write(r telemetry.ArchiveRow) error {
	c.rows = append(c.rows, r)
	return nil
}

type batchCollectWriter struct {
	collectWriter
	batches int
}

func (c *batchCollectWriter) WriteBatch(rows []telemetry.ArchiveRow) error {
	c.batches++
	c.rows = append(c.rows, rows...)
	return nil
}

var testRows = []telemetry.ArchiveRow{
	{SessionID: "s1", Level: 12.5, BootMS: 100, Timestamp: time.Unix(0, 0).UTC()},
	{SessionID: "s1", Level: 95, BootMS: 200, Timestamp: time.Unix(1, 0).UTC()},
}

func TestStdoutWriterJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &StdoutWriter{out: buf}
	if err := w.WriteBatch(testRows); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	var row telemetry.ArchiveRow
	if err := json.Unmarshal([]byte(lines[1]), &row); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if row.Level != 95 || row.BootMS != 200 {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestStdoutWriterColorized(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &StdoutWriter{out: buf, colorize: true}
	if err := w.Write(testRows[1]); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected color codes in output: %q", out)
	}
	if !strings.Contains(out, "level=95.00") || !strings.Contains(out, "band=high") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.jsonl")
	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	if err := w.WriteBatch(testRows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		var row telemetry.ArchiveRow
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			t.Fatalf("line %d: %v", n, err)
		}
		if row.BootMS != testRows[n].BootMS {
			t.Fatalf("line %d mismatch: %+v", n, row)
		}
		n++
	}
	if n != len(testRows) {
		t.Fatalf("expected %d lines, got %d", len(testRows), n)
	}
}

func TestMultiWriterUsesBatchWhenSupported(t *testing.T) {
	plain := &collectWriter{}
	batched := &batchCollectWriter{}
	mw := NewMultiWriter(plain, batched)
	if err := mw.WriteBatch(testRows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if len(plain.rows) != 2 || len(batched.rows) != 2 {
		t.Fatalf("rows not fanned out: %d %d", len(plain.rows), len(batched.rows))
	}
	if batched.batches != 1 {
		t.Fatalf("expected one batch call, got %d", batched.batches)
	}
	if err := mw.Write(testRows[0]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(plain.rows) != 3 || len(batched.rows) != 3 {
		t.Fatalf("single row not fanned out")
	}
}

func TestLink(t *testing.T) {
	cw := &collectWriter{}
	l := NewLink(cw, "s9")
	l.now = func() time.Time { return time.Unix(10, 0) }
	if err := l.Send(telemetry.Batch{{Timestamp: 1, Level: 3}, {Timestamp: 2, Level: 4}}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(cw.rows) != 2 || cw.rows[0].SessionID != "s9" || !cw.rows[1].Timestamp.Equal(time.Unix(10, 0)) {
		t.Fatalf("unexpected rows %+v", cw.rows)
	}
	if l.IsClosed() {
		t.Fatalf("link closed early")
	}
	l.Close()
	if err := l.Send(telemetry.Batch{{Timestamp: 3}}); !errors.Is(err, ErrLinkClosed) {
		t.Fatalf("expected ErrLinkClosed, got %v", err)
	}
}

type mockGreptimeClient struct {
	table *table.Table
	err   error
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, m.err
}

func TestGreptimeWriterBatch(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: "soleon_levels", log: discardLogger()}
	if err := w.WriteBatch(testRows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}
	rows := m.table.GetRows()
	if len(rows.Schema) != 4 {
		t.Fatalf("unexpected schema length: %d", len(rows.Schema))
	}
	if len(rows.Rows) != len(testRows) {
		t.Fatalf("expected %d rows, got %d", len(testRows), len(rows.Rows))
	}
	if rows.Schema[0].ColumnName != "session_id" {
		t.Fatalf("unexpected first column %q", rows.Schema[0].ColumnName)
	}
}

func TestGreptimeWriterError(t *testing.T) {
	m := &mockGreptimeClient{err: errors.New("unavailable")}
	w := &GreptimeDBWriter{client: m, table: "soleon_levels", log: discardLogger()}
	if err := w.Write(testRows[0]); err == nil {
		t.Fatalf("expected write error")
	}
	m.table = nil
	if err := w.WriteBatch(nil); err != nil || m.table != nil {
		t.Fatalf("empty batch should be a no-op")
	}
}
