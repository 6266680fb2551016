package bot

import (
	"log/slog"
	"strings"

	"github.com/m3rciful/quotebot/core/logger"
	"github.com/m3rciful/quotebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/quotebot/core/telegram/helpers"
	"github.com/m3rciful/quotebot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

func chatID(c tele.Context) (int64, bool) {
	chat := c.Chat()
	if chat == nil {
		return 0, false
	}
	return chat.ID, true
}

func (h *Handlers) command(kind conversation.CommandKind) tele.HandlerFunc {
	return func(c tele.Context) error {
		id, ok := chatID(c)
		if !ok {
			return nil
		}
		ev := conversation.CommandEvent(id, kind, commandArg(c, kind))
		return h.dispatch(c, ev)
	}
}

// commandArg maps the mute menu labels to an explicit argument.
func commandArg(c tele.Context, kind conversation.CommandKind) string {
	msg := c.Message()
	if msg == nil {
		return ""
	}
	if kind == conversation.CmdMute {
		switch strings.TrimSpace(msg.Text) {
		case conversation.LabelMute:
			return conversation.MuteOn
		case conversation.LabelUnmute:
			return conversation.MuteOff
		}
	}
	return strings.TrimSpace(msg.Payload)
}

// Callback handles every registered action unique.
func (h *Handlers) Callback(c tele.Context) error {
	cb := c.Callback()
	id, ok := chatID(c)
	if cb == nil || !ok {
		return nil
	}
	unique, payload := callbacks.Split(cb)
	action, ok := conversation.ParseAction(unique, payload)
	if !ok {
		logger.Debug(tghelpers.BuildContext(c), "tg", "callback.malformed",
			slog.String("cb_key", unique),
			slog.String("payload", logger.SanitizeLimit(payload, 64)),
		)
		return nil
	}
	source := ""
	if cb.Message != nil {
		source = cb.Message.Text
	}
	return h.dispatch(c, conversation.CallbackEvent(id, action, source))
}

// InProgress reports whether the chat has a pending step.
func (h *Handlers) InProgress(c tele.Context) bool {
	id, ok := chatID(c)
	if !ok {
		return false
	}
	return h.machine.InProgress(tghelpers.BuildContext(c), id)
}

// ManagerHandler feeds free text to the pending step.
func (h *Handlers) ManagerHandler(c tele.Context) error {
	id, ok := chatID(c)
	if !ok {
		return nil
	}
	return h.dispatch(c, conversation.TextEvent(id, c.Text()))
}

func (h *Handlers) dispatch(c tele.Context, ev conversation.Event) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := h.machine.Handle(ctx, ev)
	if renderErr := Render(c, reply); renderErr != nil && err == nil {
		err = renderErr
	}
	return err
}

// UnknownText ignores free text outside a pending step.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return ignore("text")
}

// UnknownDocument ignores documents outside a pending step.
func (h *Handlers) UnknownDocument() tele.HandlerFunc {
	return ignore("document")
}

// UnknownCallback drops buttons with an unknown unique.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return ignore("callback")
}

func ignore(kind string) tele.HandlerFunc {
	return func(c tele.Context) error {
		logger.Debug(tghelpers.BuildContext(c), "tg", "update.ignored", slog.String("kind", kind))
		return nil
	}
}
