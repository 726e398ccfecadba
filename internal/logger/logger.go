package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

type Config struct {
	Level  string
	Format string // "text" (colored) or "json"
	Writer io.Writer

	FluentEnabled bool
	FluentHost    string
	FluentPort    int
	FluentTag     string
}

// New builds the process logger. The returned close func flushes the fluent
// sink when one is configured and is always safe to call.
func New(cfg Config) (*slog.Logger, func() error, error) {
	level := ParseLevel(cfg.Level)
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		h = tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: "2006-01-02 15:04:05"})
	}

	closer := func() error { return nil }
	if cfg.FluentEnabled {
		client, err := fluent.New(fluent.Config{
			FluentHost:    cfg.FluentHost,
			FluentPort:    cfg.FluentPort,
			Async:         true,
			MarshalAsJSON: true,
		})
		if err != nil {
			return nil, closer, fmt.Errorf("connect fluent-bit: %w", err)
		}
		tag := cfg.FluentTag
		if tag == "" {
			tag = "cma-api"
		}
		h = Fanout(h, NewFluentHandler(client, tag, level))
		closer = client.Close
	}
	return slog.New(h), closer, nil
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

type ctxKey int

const (
	loggerKey ctxKey = iota
	traceIDKey
)

func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext falls back to slog.Default when the context carries no logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}
