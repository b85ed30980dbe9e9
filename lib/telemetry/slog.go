package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the process-wide slog handler. verbose enables debug
// logging, which includes per-request HTTP dumps from InstrumentResty.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
