package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

var (
	once sync.Once
	base *slog.Logger
)

// Options controls the global logger. An empty FilePath logs to stdout only.
type Options struct {
	FilePath   string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init configures the global logger exactly once.
// Call this in main(): logging.Init("storefront", logging.Options{FilePath: "./logs/app.log"})
func Init(component string, opts Options) *slog.Logger {
	once.Do(func() {
		var w io.Writer = os.Stdout
		if opts.FilePath != "" {
			_ = os.MkdirAll(filepath.Dir(opts.FilePath), 0755)
			rot := &lumberjack.Logger{
				Filename:   opts.FilePath,
				MaxSize:    orDefault(opts.MaxSizeMB, 50), // MB
				MaxBackups: orDefault(opts.MaxBackups, 3),
				MaxAge:     orDefault(opts.MaxAgeDays, 7), // days
				Compress:   false,
			}
			w = io.MultiWriter(os.Stdout, rot)
		}

		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
		base = slog.New(h).With("component", component)
	})
	return base
}

// Base returns the global logger (Init if not already called).
func Base() *slog.Logger {
	if base == nil {
		return Init("app", Options{})
	}
	return base
}

// New returns a child logger derived from the global one.
// IMPORTANT: does NOT create a new handler/writer; it reuses the global handler.
func New(component string) *slog.Logger {
	return Base().With("component", component)
}

// Discard is a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// WithCtx stores a logger in a standard context (useful outside Gin).
func WithCtx(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromCtx fetches a logger from ctx or falls back to the global one.
func FromCtx(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Base()
}

// With stores the logger in gin.Context.
func With(c *gin.Context, l *slog.Logger) {
	c.Set("logger", l)
}

// From returns the request-scoped logger from gin.Context, or the global one.
func From(c *gin.Context) *slog.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Base()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
