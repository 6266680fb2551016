package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type logFormat int

const (
	formatJSON logFormat = iota
	formatKV
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler flattens groups into dotted keys, lifts update metadata from
// the context and renders one line per record.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if len(cfg.keyOrder) == 0 {
		cfg.keyOrder = defaultKeyOrder
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.cfg.level.Level()
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, prefixed(h.prefix, a))
	}
	return &next
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func prefixed(prefix string, a slog.Attr) slog.Attr {
	if prefix == "" {
		return a
	}
	return slog.Attr{Key: prefix + a.Key, Value: a.Value}
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	f := make(fields, 8+len(h.attrs)+r.NumAttrs())
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()
	f["ts"] = ts.Format("2006-01-02T15:04:05.000Z")
	f["level"] = levelName(r.Level)
	if h.cfg.format == formatJSON {
		f["ts_unix_nano"] = ts.UnixNano()
	}

	for _, a := range h.attrs {
		f.add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		f.add(h.prefix, a)
		return true
	})

	h.fromContext(ctx, f)
	f.defaults(r.Message)
	f.prune()

	var line []byte
	if h.cfg.format == formatKV {
		line = encodeKV(f, h.cfg.keyOrder)
	} else {
		line = encodeJSON(f, h.cfg.keyOrder)
	}
	if h.cfg.writer == nil {
		return nil
	}
	return h.cfg.writer.Write(line)
}

func (h *structuredHandler) fromContext(ctx context.Context, f fields) {
	if ctx == nil {
		return
	}
	if rid := RIDFrom(ctx); rid != "" {
		f.setDefault("rid", CompactRID(rid))
		if h.cfg.format == formatJSON {
			f.setDefault("rid_full", rid)
		}
	}
	meta := metaFrom(ctx)
	if meta.updateID != 0 {
		f.setDefault("update_id", meta.updateID)
	}
	if meta.userID != 0 {
		f.setDefault("user_id", meta.userID)
	}
	if meta.chatID != 0 {
		f.setDefault("chat_id", meta.chatID)
	}
	if handler := HandlerFrom(ctx); handler != "" {
		f.setDefault("handler", handler)
	}
}

type fields map[string]any

func (f fields) setDefault(key string, v any) {
	if _, ok := f[key]; !ok {
		f[key] = v
	}
}

func (f fields) add(prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	key := prefix + a.Key
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = key + "."
		}
		for _, ga := range v.Group() {
			f.add(inner, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	switch v.Kind() {
	case slog.KindDuration:
		if !strings.HasSuffix(key, "_ms") {
			key += "_ms"
		}
		f[key] = RoundMS(v.Duration()).Milliseconds()
	case slog.KindTime:
		f[key] = v.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindString:
		f[key] = v.String()
	case slog.KindInt64:
		f[key] = v.Int64()
	case slog.KindUint64:
		f[key] = v.Uint64()
	case slog.KindFloat64:
		f[key] = v.Float64()
	case slog.KindBool:
		f[key] = v.Bool()
	default:
		switch x := v.Any().(type) {
		case error:
			f[key] = x.Error()
		case fmt.Stringer:
			f[key] = x.String()
		default:
			f[key] = x
		}
	}
}

func (f fields) defaults(msg string) {
	if s, _ := f["event"].(string); s == "" {
		if msg = strings.TrimSpace(msg); msg != "" {
			f["event"] = msg
		} else {
			f["event"] = "unknown"
		}
	}
	if s, _ := f["component"].(string); s == "" {
		f["component"] = "app"
	}
	if s, ok := f["status"].(string); ok {
		f["status"] = strings.ToLower(strings.TrimSpace(s))
	}
	if s, ok := f["outcome"].(string); ok {
		s = strings.ToLower(strings.TrimSpace(s))
		if allowedOutcome[s] {
			f["outcome"] = s
		} else {
			delete(f, "outcome")
		}
	}
}

// prune drops nil values and empty strings.
func (f fields) prune() {
	for k, v := range f {
		switch x := v.(type) {
		case nil:
			delete(f, k)
		case string:
			if x == "" {
				delete(f, k)
			}
		}
	}
}
