// Package logger provides the structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: the request logger middleware
// stores a logger already tagged with the request id in the context, so every
// line written from a handler or service is correlated:
//
//	log := logger.WithCtx(ctx)
//	log.Info("order shipped", "order_id", id)
//	// → time=... level=INFO msg="order shipped" request_id=a1b2c3d4 order_id=...
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// L is the process-wide base logger. It is replaced by Setup.
var L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// Setup builds the base logger for env and installs it as the slog default.
// Production gets JSON for log aggregators, everything else human-readable text.
// An empty level picks info for production and debug otherwise.
func Setup(env, level string) *slog.Logger {
	return SetupWriter(os.Stdout, env, level)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, env, level string) *slog.Logger {
	prod := env == "production" || env == "prod"

	lvl := slog.LevelDebug
	if prod {
		lvl = slog.LevelInfo
	}
	if level != "" {
		lvl = ParseLevel(level)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if prod {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	L = slog.New(handler)
	slog.SetDefault(L)
	return L
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log into ctx. Called by the request logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Debug logs at DEBUG level on the base logger.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level on the base logger.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level on the base logger.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level on the base logger.
func Error(msg string, args ...any) { L.Error(msg, args...) }
