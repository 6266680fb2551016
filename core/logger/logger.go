// Package logger is the structured slog setup shared by every component.
// Each event is one JSON or key=value line with a stable key order,
// written through an asynchronous buffered writer.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/m3rciful/quotebot/core/buildinfo"
	coreconfig "github.com/m3rciful/quotebot/core/config"
)

var (
	initOnce  sync.Once
	closeOnce sync.Once

	out     *asyncWriter
	closers []io.Closer

	level        slog.LevelVar
	debugSampler ratioSampler
	traceAll     bool

	// L is the root logger, nil until InitLogger. Components log through
	// Debug/Info/Warn/Error, which tolerate a nil L.
	L *slog.Logger
)

// InitLogger configures the global logger from cfg. Only the first call has effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() { err = setup(optionsFrom(cfg)) })
	return err
}

func setup(opts options) error {
	sinks, files, err := openSinks(opts)
	if err != nil {
		return err
	}
	closers = files
	out = newAsyncWriter(io.MultiWriter(sinks...), 64<<10)

	level.Set(opts.level)
	debugSampler.Set(opts.sampleNum, opts.sampleDen)
	traceAll = opts.trace

	L = slog.New(newStructuredHandler(handlerConfig{
		level:    &level,
		writer:   out,
		format:   opts.format,
		keyOrder: opts.keyOrder,
	}))
	slog.SetDefault(L)

	Info(context.Background(), "app", "startup",
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", opts.profile),
	)
	return nil
}

// Shutdown drains buffered output and closes log files. Later calls are no-ops.
func Shutdown() error {
	var err error
	closeOnce.Do(func() {
		var errs []error
		if out != nil {
			errs = append(errs, out.Close())
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		err = errors.Join(errs...)
	})
	return err
}

// Event logs one event for component. It is a no-op before InitLogger.
func Event(ctx context.Context, component string, lvl slog.Level, event string, attrs ...slog.Attr) {
	if L == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !L.Enabled(ctx, lvl) {
		return
	}
	all := make([]slog.Attr, 0, len(attrs)+2)
	all = append(all, slog.String("component", component), slog.String("event", event))
	all = append(all, attrs...)
	L.LogAttrs(ctx, lvl, event, all...)
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

// ShouldSampleDebug reports whether a high-volume debug event should be logged.
// TRACE=1 disables sampling.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.Allow()
}
