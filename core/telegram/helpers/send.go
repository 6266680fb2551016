package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/quotebot/core/logger"
	"github.com/m3rciful/quotebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// EditText replaces the text and inline keyboard of the callback's message,
// falling back to a new message when there is nothing to edit.
func EditText(c tele.Context, text string, opts *tele.SendOptions) error {
	return sendAsync(c, "edit.text", "editMessageText", func() error {
		if opts != nil {
			return c.EditOrSend(text, opts)
		}
		return c.EditOrSend(text)
	})
}

// DeleteSource removes the message the pressed button belongs to.
func DeleteSource(c tele.Context) error {
	if c.Callback() == nil || c.Callback().Message == nil {
		return nil
	}
	return sendAsync(c, "delete", "deleteMessage", func() error {
		return c.Delete()
	})
}
