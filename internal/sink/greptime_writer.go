package sink

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"soleondash/internal/telemetry"
)

// greptimeClient is the subset of the ingester client used here.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

const greptimeWriteTimeout = 2 * time.Second

// GreptimeDBWriter archives readings to GreptimeDB via the ingester client.
// The table is created on first write.
type GreptimeDBWriter struct {
	client greptimeClient
	table  string
	log    *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint (host or host:port).
func NewGreptimeDBWriter(endpoint, database, tableName string, log *slog.Logger) (*GreptimeDBWriter, error) {
	host, port := endpoint, 4001
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("greptime port %q: %w", p, err)
		}
		host, port = h, n
	}
	if database == "" {
		database = "public"
	}
	if tableName == "" {
		tableName = telemetry.ArchiveTableName
	}
	if log == nil {
		log = slog.Default()
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{client: client, table: tableName, log: log}, nil
}

// Write inserts a single row.
func (w *GreptimeDBWriter) Write(row telemetry.ArchiveRow) error {
	return w.WriteBatch([]telemetry.ArchiveRow{row})
}

// WriteBatch inserts multiple rows in one request.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.ArchiveRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := w.newTable()
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.SessionID, r.Level, r.BootMS, r.Timestamp); err != nil {
			return fmt.Errorf("greptime row: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), greptimeWriteTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		w.log.Error("greptime write failed", "table", w.table, "err", err)
		return err
	}
	w.log.Debug("greptime wrote rows", "table", w.table, "rows", len(rows))
	return nil
}

func (w *GreptimeDBWriter) newTable() (*table.Table, error) {
	tbl, err := table.New(w.table)
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("session_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("level", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("boot_ms", types.INT64); err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	return tbl, nil
}
