package router

import (
	"strings"

	tg "github.com/m3rciful/quotebot/core/telegram"
	"github.com/m3rciful/quotebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM routes free text to a pending conversation step of the chat.
type FSM interface {
	InProgress(c tele.Context) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document routing.
// Menu labels registered as command aliases win over a pending FSM step,
// so choosing a menu item always starts over. Admin-only commands are only
// reachable through their command route.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		if text := strings.TrimSpace(c.Text()); reg != nil && text != "" {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return newSummary(handlerName(key)).run(c, func() error { return cmd.Handler(c) })
			}
		}
		if fsmMgr != nil && fsmMgr.InProgress(c) {
			return newSummary("fsm").run(c, func() error { return fsmMgr.ManagerHandler(c) })
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return newSummary("fallback").run(c, func() error { return fb(c) })
			}
		}
		return unknown(c, "unknown_text", opts.UnknownText)
	}

	docHandler := func(c tele.Context) error {
		if fsmMgr != nil && fsmMgr.InProgress(c) {
			return newSummary("fsm_document").run(c, func() error { return fsmMgr.ManagerHandler(c) })
		}
		return unknown(c, "unexpected_document", opts.UnknownDocument)
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}

func unknown(c tele.Context, name string, h tele.HandlerFunc) error {
	sum := newSummary(name)
	if h == nil {
		sum.skip(c)
		return nil
	}
	return sum.run(c, func() error { return h(c) })
}
