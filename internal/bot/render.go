package bot

import (
	tghelpers "github.com/m3rciful/quotebot/core/telegram/helpers"
	"github.com/m3rciful/quotebot/core/telegram/keyboard"
	"github.com/m3rciful/quotebot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// Markup converts reply keyboards to telebot markup. Inline rows win over the main menu.
func Markup(r *conversation.Reply) *tele.ReplyMarkup {
	if r == nil {
		return nil
	}
	if len(r.Inline) > 0 {
		rows := make([][]keyboard.InlineBtn, len(r.Inline))
		for i, row := range r.Inline {
			rows[i] = make([]keyboard.InlineBtn, len(row))
			for j, b := range row {
				rows[i][j] = keyboard.InlineBtn{Text: b.Text, Unique: b.Action.Unique(), Data: b.Action.Payload()}
			}
		}
		return keyboard.InlineButtonsRows(rows...)
	}
	if r.MainMenu {
		return keyboard.ReplyButtons(conversation.MainMenu(r.Muted)...)
	}
	return nil
}

// Render sends, edits or deletes according to r. A nil reply sends nothing.
func Render(c tele.Context, r *conversation.Reply) error {
	if r == nil {
		return nil
	}
	opts := &tele.SendOptions{
		DisableNotification: r.Muted,
		ReplyMarkup:         Markup(r),
	}
	if r.DeleteSource {
		_ = tghelpers.DeleteSource(c)
	}
	if r.Edit && c.Callback() != nil {
		return tghelpers.EditText(c, r.Text, opts)
	}
	return tghelpers.SendText(c, r.Text, opts)
}
