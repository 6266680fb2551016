package helpers

import (
	"context"

	"github.com/m3rciful/quotebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const storedCtxKey = "quotebot.ctx"

// IDs returns the update, chat and user ids of c; missing parts are 0.
func IDs(c tele.Context) (updateID int, chatID, userID int64) {
	updateID = c.Update().ID
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	return updateID, chatID, userID
}

// Attach stores ctx on c so later BuildContext calls reuse it.
func Attach(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(storedCtxKey, ctx)
	}
}

// BuildContext returns the context attached to c, or builds one carrying the
// update correlation id and ids for logging.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(storedCtxKey).(context.Context); ok {
		return ctx
	}
	updateID, chatID, userID := IDs(c)
	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}
	ctx := logger.WithUpdateMeta(logger.WithRID(context.Background(), rid), updateID, userID, chatID)
	Attach(c, ctx)
	return ctx
}

// WithHandler names the handler on the attached context and returns it.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" && logger.HandlerFrom(ctx) != handler {
		ctx = logger.WithHandler(ctx, handler)
		Attach(c, ctx)
	}
	return ctx
}
