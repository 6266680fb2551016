package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/quotebot/core/logger"
	"github.com/m3rciful/quotebot/core/metrics"
	tghelpers "github.com/m3rciful/quotebot/core/telegram/helpers"
	"github.com/m3rciful/quotebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary describes one routed handler call and logs "handler.handled" when done.
type summary struct {
	name   string
	start  time.Time
	extras []slog.Attr
}

func newSummary(name string, extras ...slog.Attr) *summary {
	return &summary{name: name, start: time.Now(), extras: extras}
}

// run calls fn under the handler name and logs its result.
func (s *summary) run(c tele.Context, fn func() error) error {
	tghelpers.WithHandler(c, s.name)
	err := fn()
	s.log(c, metrics.Outcome(err), err)
	return err
}

// skip logs an update no handler accepted.
func (s *summary) skip(c tele.Context) {
	s.log(c, "skip", nil)
}

func (s *summary) log(c tele.Context, status string, err error) {
	ctx := tghelpers.WithHandler(c, s.name)
	outcome := metrics.Outcome(err)
	elapsed := time.Since(s.start)
	metrics.Handlers.WithLabelValues(s.name, outcome).Observe(elapsed.Seconds())

	sent := middleware.SentFrom(c)
	attrs := make([]slog.Attr, 0, 8+len(s.extras))
	attrs = append(attrs,
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", sent.Messages),
		slog.Bool("kb", sent.Keyboard),
		slog.Duration("duration", elapsed),
	)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	attrs = append(attrs, s.extras...)
	logger.Info(ctx, "tg", "handler.handled", attrs...)
}

// handlerName turns a command key or menu label into a metric-safe name.
func handlerName(key string) string {
	key = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(key), "/"))
	if key == "" {
		return "unknown"
	}
	return strings.Join(strings.Fields(key), "_")
}

// errorCode prefers a Code() method anywhere in the chain, else the error type name.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.Join(strings.Fields(code), "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
