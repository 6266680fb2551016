package logger

import "log/slog"

// Component names shared by packages that log through Info/Warn/Error.
const (
	ComponentQuotes   = "service.quotes"
	ComponentProvider = "provider.quotes"
	ComponentState    = "tg.state"
)

// Keys listed here lead every line in this order; the rest follow sorted.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status", "rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "handler", "op", "cb_key", "outcome",
	"duration_ms", "messages", "kb", "count", "page", "payload", "lang", "username",
	"mode", "listen", "public_url", "http_code", "db", "host", "port", "state",
	"category", "quote_id", "results", "err", "err_code", "retryable", "attempts", "backoff_ms",
}

// status and outcome values are lower-cased; outcomes outside the set are dropped.
var allowedOutcome = map[string]bool{
	"ok": true, "fail": true, "cancelled": true, "rate_limited": true,
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

// Status maps an error to "ok" or "error".
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
