package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"log/slog"
)

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelInfo,
		out:    buf,
		format: formatKV,
	})
	ctx := WithRID(nil, "rid-123")

	log := slog.New(handler).With("component", "app")
	log.LogAttrs(ctx, slog.LevelInfo, "",
		slog.String("event", "test.event"),
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelInfo,
		out:    buf,
		format: formatJSON,
	})

	log := slog.New(handler).With("component", "tg")
	log.LogAttrs(nil, slog.LevelWarn, "",
		slog.String("event", "send.fail"),
		slog.Int64("user_id", 42),
	)

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json line: %v (%s)", err, buf.String())
	}
	if decoded["level"] != "WARN" {
		t.Fatalf("level = %v", decoded["level"])
	}
	if decoded["component"] != "tg" {
		t.Fatalf("component = %v", decoded["component"])
	}
	if decoded["event"] != "send.fail" {
		t.Fatalf("event = %v", decoded["event"])
	}
	if decoded["user_id"].(float64) != 42 {
		t.Fatalf("user_id = %v", decoded["user_id"])
	}
}

func TestStructuredHandlerLevelGate(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelWarn,
		out:    buf,
		format: formatKV,
	})
	log := slog.New(handler)
	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info line should be gated: %s", buf.String())
	}
	log.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("warn line should pass")
	}
}

func TestSanitizeLimit(t *testing.T) {
	in := "abc\x00def\x1b[0m"
	if got := SanitizeLimit(in, 64); got != "abcdef[0m" {
		t.Fatalf("sanitize: %q", got)
	}
	if got := SanitizeLimit("abcdef", 3); got != "abc" {
		t.Fatalf("limit: %q", got)
	}
}
