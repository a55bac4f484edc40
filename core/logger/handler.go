package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

// keyOrder pins well-known attributes to the front of every line so that
// kv output stays grep-able and json output stays diff-able.
var keyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"outcome",
	"stage",
	"slot",
	"thread_id",
	"duration_ms",
	"err",
}

type handlerConfig struct {
	level  slog.Leveler
	out    io.Writer
	format logFormat
}

type structuredHandler struct {
	cfg   handlerConfig
	attrs []slog.Attr
	mu    *sync.Mutex
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	return &structuredHandler{cfg: cfg, mu: &sync.Mutex{}}
}

// Enabled reports whether the handler allows processing the provided level.
func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

// Handle formats the slog.Record and writes one line to the configured output.
func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.out == nil {
		return fmt.Errorf("logger: output not initialized")
	}

	fields := make(map[string]any, 16)
	fields["ts"] = r.Time.UTC().Truncate(time.Millisecond).Format(timeFormatMillis)
	fields["level"] = strings.ToUpper(r.Level.String())

	collectAttrs(fields, h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		collectAttr(fields, a)
		return true
	})

	if _, ok := fields["event"]; !ok && r.Message != "" {
		fields["event"] = r.Message
	}
	if rid := RIDFrom(ctx); rid != "" {
		if _, ok := fields["rid"]; !ok {
			fields["rid"] = rid
		}
	}
	if handler := HandlerFrom(ctx); handler != "" {
		if _, ok := fields["handler"]; !ok {
			fields["handler"] = handler
		}
	}

	keys := orderedKeys(fields)

	var line []byte
	if h.cfg.format == formatJSON {
		ordered := make([]string, 0, len(keys))
		for _, k := range keys {
			raw, err := json.Marshal(fields[k])
			if err != nil {
				raw = []byte(strconv.Quote(fmt.Sprint(fields[k])))
			}
			ordered = append(ordered, strconv.Quote(k)+":"+string(raw))
		}
		line = []byte("{" + strings.Join(ordered, ",") + "}\n")
	} else {
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+kvValue(fields[k]))
		}
		line = []byte(strings.Join(parts, " ") + "\n")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.cfg.out.Write(line)
	return err
}

// WithAttrs returns a handler that adds the provided attributes to every record.
func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup is accepted but flattened; grouped keys are rare in this codebase.
func (h *structuredHandler) WithGroup(string) slog.Handler {
	return h
}

func collectAttrs(fields map[string]any, attrs []slog.Attr) {
	for _, a := range attrs {
		collectAttr(fields, a)
	}
}

func collectAttr(fields map[string]any, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, nested := range v.Group() {
			collectAttr(fields, nested)
		}
		return
	}
	switch v.Kind() {
	case slog.KindDuration:
		key := a.Key
		if !strings.HasSuffix(key, "_ms") {
			key += "_ms"
		}
		fields[key] = v.Duration().Milliseconds()
	case slog.KindTime:
		fields[a.Key] = v.Time().UTC().Format(timeFormatMillis)
	default:
		fields[a.Key] = v.Any()
	}
}

func orderedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, k := range keyOrder {
		if _, ok := fields[k]; ok {
			keys = append(keys, k)
			seen[k] = struct{}{}
		}
	}
	rest := make([]string, 0, len(fields))
	for k := range fields {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func kvValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return strconv.Quote(s)
	}
	return s
}
