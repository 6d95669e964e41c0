package main

import (
	"io"
	"log/slog"

	"soleondash/internal/config"
	"soleondash/internal/logging"
)

// hostLogger logs to the rotating file from the config, or to fallback when
// no file is set. The returned function closes the file.
func hostLogger(cfg *config.Config, fallback io.Writer) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Logging.File == "" {
		return logging.New(fallback, level), func() {}, nil
	}
	w := logging.NewFile(logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	return logging.New(w, level), func() { w.Close() }, nil
}
