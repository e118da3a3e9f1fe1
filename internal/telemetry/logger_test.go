package telemetry

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func testRecord(level slog.Level, msg string) slog.Record {
	ts := time.Date(2026, 8, 29, 17, 10, 39, 123_000_000, time.UTC)
	return slog.NewRecord(ts, level, msg, 0)
}

func TestPrettyHandlerFormat(t *testing.T) {
	var buf strings.Builder
	h := &prettyHandler{w: &buf, level: slog.LevelInfo, mu: &sync.Mutex{}}

	if err := h.Handle(context.Background(), testRecord(slog.LevelWarn, "score drop held")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	got := buf.String()
	if got != "[2026-08-29 17:10:39.123] WARN: score drop held\n" {
		t.Errorf("line = %q", got)
	}
}

func TestPrettyHandlerAttrs(t *testing.T) {
	var buf strings.Builder
	var h slog.Handler = &prettyHandler{w: &buf, level: slog.LevelInfo, mu: &sync.Mutex{}}
	h = h.WithAttrs([]slog.Attr{slog.String("match", "m1")})

	rec := testRecord(slog.LevelInfo, "tip placed")
	rec.AddAttrs(slog.Float64("stake", 2.5))
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "match=m1") || !strings.Contains(got, "stake=2.5") {
		t.Errorf("attrs missing: %q", got)
	}
}

func TestPrettyHandlerLevelGate(t *testing.T) {
	h := &prettyHandler{level: slog.LevelWarn, mu: &sync.Mutex{}}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error gated at warn level")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
