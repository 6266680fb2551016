package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/quotebot/core/logger"
	tghelpers "github.com/m3rciful/quotebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ErrPanic marks errors produced from a recovered handler panic.
var ErrPanic = fmt.Errorf("handler panic")

// RecoverMiddleware turns a handler panic into an error wrapping ErrPanic.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(tghelpers.BuildContext(c), "tg", "panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		return next(c)
	}
}
