// Package logging is the structured logger shared by the simulator session,
// the catalog client and the two binaries. It wraps log/slog and carries the
// session and request identifiers through context.Context.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Field is one key/value pair attached to a log record.
type Field struct {
	Key   string
	Value any
}

func field(key string, value any) Field { return Field{Key: key, Value: value} }

func String(key, value string) Field          { return field(key, value) }
func Int(key string, value int) Field         { return field(key, value) }
func Float64(key string, value float64) Field { return field(key, value) }
func Bool(key string, value bool) Field       { return field(key, value) }
func Any(key string, value any) Field         { return field(key, value) }

// Err logs err's message under "error". A nil error yields a nil value.
func Err(err error) Field {
	if err == nil {
		return field("error", nil)
	}
	return field("error", err.Error())
}

// Logger is what the simulator components log through. Every call takes the
// context of the tick, command or fetch that produced it.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Config selects the level ("debug", "info", "warn" or "error") and the
// output format ("json" or "text").
type Config struct {
	Level     string
	Format    string
	AddSource bool
}

// New writes to stdout.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stdout, cfg)
}

// NewWithWriter builds a slog-backed Logger writing to w. Unknown formats fall
// back to text and unknown levels to info.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{Level: levelOf(cfg.Level), AddSource: cfg.AddSource}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	}
	return slogLogger{l: slog.New(h)}
}

// NewFromEnv reads LOG_LEVEL and LOG_FORMAT. It is used before the viper
// configuration has been loaded.
func NewFromEnv() Logger {
	return New(Config{
		Level:     os.Getenv("LOG_LEVEL"),
		Format:    os.Getenv("LOG_FORMAT"),
		AddSource: true,
	})
}

// Noop discards everything. Components fall back to it when handed a nil
// Logger.
func Noop() Logger { return discard{} }

func levelOf(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) emit(ctx context.Context, lvl slog.Level, msg string, fields []Field) {
	if !s.l.Enabled(ctx, lvl) {
		return
	}
	s.l.LogAttrs(ctx, lvl, msg, attrs(fields)...)
}

func (s slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	s.emit(ctx, slog.LevelDebug, msg, fields)
}

func (s slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	s.emit(ctx, slog.LevelInfo, msg, fields)
}

func (s slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	s.emit(ctx, slog.LevelWarn, msg, fields)
}

func (s slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	s.emit(ctx, slog.LevelError, msg, fields)
}

func (s slogLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return s
	}
	args := make([]any, len(fields))
	for i, a := range attrs(fields) {
		args[i] = a
	}
	return slogLogger{l: s.l.With(args...)}
}

func attrs(fields []Field) []slog.Attr {
	out := make([]slog.Attr, len(fields))
	for i, f := range fields {
		out[i] = slog.Any(f.Key, f.Value)
	}
	return out
}

type discard struct{}

func (discard) Debug(context.Context, string, ...Field) {}
func (discard) Info(context.Context, string, ...Field)  {}
func (discard) Warn(context.Context, string, ...Field)  {}
func (discard) Error(context.Context, string, ...Field) {}
func (d discard) With(...Field) Logger                  { return d }

type ctxKey int

const (
	sessionKey ctxKey = iota
	requestKey
	loggerKey
)

func lookup[T any](ctx context.Context, key ctxKey) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// ContextWithSessionID tags ctx with the simulation session it belongs to.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionKey, id)
}

// SessionIDFromContext returns "" outside a session.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := lookup[string](ctx, sessionKey)
	return id
}

// WithSessionLogger annotates base with whichever of session_id and
// request_id ctx carries.
func WithSessionLogger(ctx context.Context, base Logger) Logger {
	if base == nil {
		base = Noop()
	}
	var fields []Field
	if id := SessionIDFromContext(ctx); id != "" {
		fields = append(fields, String("session_id", id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, String("request_id", id))
	}
	return base.With(fields...)
}

// EnsureRequestID returns ctx unchanged when it already has a request ID and
// otherwise mints a random one.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := newRequestID()
	return ContextWithRequestID(ctx, id), id
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := lookup[string](ctx, requestKey)
	return id
}

// WithRequestLogger is EnsureRequestID plus a logger carrying the ID. The
// gRPC interceptor calls it once per RPC.
func WithRequestLogger(ctx context.Context, base Logger) (context.Context, Logger) {
	if base == nil {
		base = Noop()
	}
	ctx, id := EnsureRequestID(ctx)
	return ctx, base.With(String("request_id", id))
}

// ContextWithLogger stores l on ctx. A nil l is stored as Noop.
func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	if l == nil {
		l = Noop()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, l)
}

// LoggerFromContext returns nil when ctx has no logger.
func LoggerFromContext(ctx context.Context) Logger {
	l, _ := lookup[Logger](ctx, loggerKey)
	return l
}

func newRequestID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
