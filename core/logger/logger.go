// Package logger configures the process-wide structured logger and the
// component/event vocabulary used across the bot.
package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/iulicovete-ux/Documente-CV/core/buildinfo"
)

// Options control logger initialization. Zero values fall back to JSON at
// info level on stdout.
type Options struct {
	Level   string
	Format  string
	Profile string
	Dir     string
	File    string
}

var (
	initOnce   sync.Once
	shutdownMu sync.Mutex
	shutdowned bool

	logClosers []io.Closer
	levelVar   slog.LevelVar

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

	// L is the base logger for call sites that do not carry a context.
	L *slog.Logger

	// TG logs Telegram transport events.
	TG *slog.Logger
	// APP logs application lifecycle events.
	APP *slog.Logger
	// DB logs database events.
	DB *slog.Logger
	// MIG logs migration events.
	MIG *slog.Logger
)

// Init configures the global structured logger. It may be called only once;
// later calls are no-ops.
func Init(opts Options) error {
	var initErr error
	initOnce.Do(func() {
		levelVar.Set(parseLevel(opts.Level))

		out, closers, err := buildOutput(opts)
		if err != nil {
			initErr = err
			return
		}
		logClosers = closers

		handler := newStructuredHandler(handlerConfig{
			level:  &levelVar,
			out:    out,
			format: selectFormat(opts),
		})

		L = slog.New(handler)
		slog.SetDefault(L)

		TG = L.With("component", "tg")
		APP = L.With("component", "app")
		DB = L.With("component", "db")
		MIG = L.With("component", "db.migrate")

		L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
			slog.String("component", "app"),
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", selectProfile(opts)),
		)
	})
	return initErr
}

// Shutdown closes any opened log sinks.
func Shutdown() error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if shutdowned {
		return nil
	}
	shutdowned = true

	var errs []error
	for _, c := range logClosers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Component constructs a logger scoped to the provided component attribute.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return L
	}
	return L.With("component", trimmed)
}

// Event logs with component scope resolved automatically.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	logg := Component(component)
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// RoundMS truncates a duration to millisecond resolution for log output.
func RoundMS(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}

// SanitizeError strips bot tokens from error text before it reaches logs.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

// SanitizeLimit removes control characters and limits the output length in runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	b := strings.Builder{}
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := b.String()
	runes := []rune(cleaned)
	if len(runes) <= max {
		return cleaned
	}
	return string(runes[:max])
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

func selectFormat(opts Options) logFormat {
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	if strings.EqualFold(opts.Profile, "debug") || strings.EqualFold(opts.Profile, "dev") {
		return formatKV
	}
	return formatJSON
}

func selectProfile(opts Options) string {
	if p := strings.TrimSpace(opts.Profile); p != "" {
		return strings.ToLower(p)
	}
	return "prod"
}

func buildOutput(opts Options) (io.Writer, []io.Closer, error) {
	writers := []io.Writer{os.Stdout}
	var closers []io.Closer

	dir := strings.TrimSpace(opts.Dir)
	file := strings.TrimSpace(opts.File)
	if dir != "" && file != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("logger: failed to create log dir %s: %v", dir, err)
		} else {
			path := filepath.Join(dir, file)
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				log.Printf("logger: failed to open log file %s: %v", path, err)
			} else {
				writers = append(writers, f)
				closers = append(closers, f)
			}
		}
	}
	if len(writers) == 1 {
		return writers[0], closers, nil
	}
	return io.MultiWriter(writers...), closers, nil
}
