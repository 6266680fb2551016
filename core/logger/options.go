package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	coreconfig "github.com/m3rciful/quotebot/core/config"
)

type options struct {
	format    logFormat
	keyOrder  []string
	level     slog.Level
	sampleNum int
	sampleDen int
	trace     bool
	file      string
	profile   string
}

const defaultDebugSample = "1/50"

func optionsFrom(cfg *coreconfig.Config) options {
	if cfg == nil {
		cfg = &coreconfig.Config{}
	}
	lc := cfg.Logging

	opts := options{
		profile:  strings.ToLower(strings.TrimSpace(lc.Profile)),
		level:    parseLevel(lc.Level),
		keyOrder: parseKeyOrder(lc.KeysOrder),
		trace:    isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE")),
	}
	if opts.profile == "" {
		opts.profile = "prod"
	}
	opts.format = parseFormat(lc.Format, opts.profile)

	sample := strings.TrimSpace(lc.DebugSample)
	if sample == "" {
		sample = defaultDebugSample
	}
	opts.sampleNum, opts.sampleDen = parseRatio(sample)

	dir, file := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile)
	if dir != "" {
		if file == "" {
			file = "bot.log"
		}
		opts.file = filepath.Join(dir, file)
	}
	return opts
}

func parseLevel(s string) slog.Level {
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

// parseFormat picks kv for debug/dev profiles unless a format is set explicitly.
func parseFormat(s, profile string) logFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	if profile == "debug" || profile == "dev" {
		return formatKV
	}
	return formatJSON
}

func parseKeyOrder(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "default" {
		return defaultKeyOrder
	}
	var order []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			order = append(order, k)
		}
	}
	if len(order) == 0 {
		return defaultKeyOrder
	}
	return order
}

// parseRatio accepts "n/d" or "d" (meaning 1/d). Zero or garbage disables sampling.
func parseRatio(spec string) (int, int) {
	numStr, denStr, ok := strings.Cut(spec, "/")
	if !ok {
		numStr, denStr = "1", spec
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(numStr))
	den, err2 := strconv.Atoi(strings.TrimSpace(denStr))
	if err1 != nil || err2 != nil || num <= 0 || den <= 0 {
		return 0, 0
	}
	return num, den
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func openSinks(opts options) ([]io.Writer, []io.Closer, error) {
	sinks := []io.Writer{os.Stdout}
	if opts.file == "" {
		return sinks, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.file), 0o755); err != nil {
		return nil, nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(opts.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return append(sinks, f), []io.Closer{f}, nil
}
