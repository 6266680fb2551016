package router

import (
	"log/slog"

	tg "github.com/m3rciful/quotebot/core/telegram"
	"github.com/m3rciful/quotebot/core/telegram/callbacks"
	"github.com/m3rciful/quotebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key := callbacks.CallbackKey(c)
		_ = c.Respond()

		h, ok := reg.GetCallback(key)
		extras := []slog.Attr{slog.String("cb_key", key)}
		if !ok || h == nil {
			h = reg.CallbackNotFound()
			if h == nil {
				h = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
		}
		sum := newSummary("callback."+handlerName(key), extras...)
		if h == nil {
			sum.skip(c)
			return nil
		}
		return sum.run(c, func() error { return h(c) })
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
