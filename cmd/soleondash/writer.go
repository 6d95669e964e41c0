package main

import (
	"log/slog"

	"soleondash/internal/config"
	"soleondash/internal/sink"
	"soleondash/internal/soleon"
)

// newArchive sets up the archive writers named in the config. It returns
// nil when archiving is off, and a cleanup function to close any files.
func newArchive(cfg *config.Config, log *slog.Logger) (soleon.ArchiveWriter, func(), error) {
	cleanup := func() {}
	var ws []sink.ReadingWriter

	if cfg.Archive.Stdout {
		ws = append(ws, sink.NewStdoutWriter())
	}
	if cfg.Archive.File != "" {
		fw, err := sink.NewFileWriter(cfg.Archive.File)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { fw.Close() }
		ws = append(ws, fw)
	}
	if g := cfg.Archive.Greptime; g.Endpoint != "" {
		gw, err := sink.NewGreptimeDBWriter(g.Endpoint, g.Database, g.Table, log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		ws = append(ws, gw)
	}

	if len(ws) == 0 {
		return nil, cleanup, nil
	}
	return sink.NewMultiWriter(ws...), cleanup, nil
}
