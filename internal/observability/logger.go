package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"appliance-dashboard/internal/config"
)

const serviceName = "appliance-dashboard"

var logLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// NewLogger builds the process logger on stdout.
func NewLogger(cfg config.LoggerConfig) *slog.Logger {
	return NewLoggerTo(os.Stdout, cfg)
}

// NewLoggerTo builds a logger on w. Every entry carries the service name;
// source positions are attached only at debug level.
func NewLoggerTo(w io.Writer, cfg config.LoggerConfig) *slog.Logger {
	level := parseLogLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}
	return slog.New(newHandler(w, cfg.Format, opts)).With("service", serviceName)
}

// Unknown formats fall back to JSON.
func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLogLevel(name string) slog.Level {
	if level, ok := logLevels[strings.ToLower(name)]; ok {
		return level
	}
	return slog.LevelInfo
}

type requestIDKey struct{}

// WithRequestID returns ctx tagged with id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the id stored by WithRequestID, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
