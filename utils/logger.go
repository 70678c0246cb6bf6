package utils

import (
	"io"
	"log/slog"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// NewLogger creates a slog.Logger writing to outW. Unknown levels fall back
// to info and any format other than "json" produces text output. It does not
// set the global logger.
func NewLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level, ok := logLevels[levelStr]
	if !ok {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}
