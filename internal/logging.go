package internal

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the application logger: structured JSON to stdout, and —
// when a log file is configured — the same stream to a size-rotated file.
func NewLogger(cfg *Config) *slog.Logger {
	var w io.Writer = os.Stdout
	if cfg.App.Log.Path != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.App.Log.Path,
			MaxSize:    cfg.App.Log.MaxSizeMB,
			MaxBackups: cfg.App.Log.MaxBackups,
		})
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}
