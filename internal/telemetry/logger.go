package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var logger *slog.Logger

func Init(level slog.Level) {
	logger = slog.New(&prettyHandler{w: os.Stderr, level: level, mu: &sync.Mutex{}})
	slog.SetDefault(logger)
}

func L() *slog.Logger {
	if logger == nil {
		Init(slog.LevelInfo)
	}
	return logger
}

func Infof(format string, args ...any)  { L().Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { L().Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { L().Error(fmt.Sprintf(format, args...)) }
func Debugf(format string, args ...any) { L().Debug(fmt.Sprintf(format, args...)) }
func Plainf(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }

// ParseLogLevel converts a string level name to slog.Level.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// prettyHandler outputs: [2026-08-29 17:10:39.123] message key=value
// Timestamps are UTC with milliseconds; feed ticks arrive twice a second
// and sub-second ordering matters when reading tip logs.
type prettyHandler struct {
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
	mu    *sync.Mutex
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02 15:04:05.000")

	var prefix string
	switch {
	case r.Level >= slog.LevelError:
		prefix = "ERROR: "
	case r.Level >= slog.LevelWarn:
		prefix = "WARN: "
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s%s", ts, prefix, r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &prettyHandler{w: h.w, level: h.level, attrs: merged, mu: h.mu}
}

func (h *prettyHandler) WithGroup(_ string) slog.Handler { return h }
