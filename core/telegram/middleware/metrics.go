package middleware

import (
	"github.com/m3rciful/quotebot/core/metrics"

	tele "gopkg.in/telebot.v4"
)

const sentKey = "sent"

// Sent tallies the replies produced while handling one update.
type Sent struct {
	Messages int
	Keyboard bool
}

// countingContext records every successful outgoing message in Sent.
type countingContext struct {
	tele.Context
	sent *Sent
}

func (c countingContext) track(err error, opts []any) error {
	if err != nil {
		return err
	}
	c.sent.Messages++
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			c.sent.Keyboard = c.sent.Keyboard || (v != nil && v.ReplyMarkup != nil)
		case *tele.ReplyMarkup:
			c.sent.Keyboard = c.sent.Keyboard || v != nil
		}
	}
	return nil
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.track(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.track(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.track(c.Context.Edit(what, opts...), opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.track(c.Context.EditOrSend(what, opts...), opts)
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.track(c.Context.EditOrReply(what, opts...), opts)
}

// UpdateKind classifies an update for rate limit exclusions and metrics.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// MessageMetricsMiddleware counts the update by kind and tallies the replies
// sent through the wrapped context.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		metrics.Updates.WithLabelValues(UpdateKind(c.Update())).Inc()
		sent := &Sent{}
		c.Set(sentKey, sent)
		return next(countingContext{Context: c, sent: sent})
	}
}

// SentFrom returns the reply tally of the update; zero when the metrics
// middleware did not run.
func SentFrom(c tele.Context) Sent {
	if s, ok := c.Get(sentKey).(*Sent); ok && s != nil {
		return *s
	}
	return Sent{}
}
