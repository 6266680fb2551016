package bot

import (
	tghelpers "github.com/m3rciful/quotebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const (
	textAdminOnly   = "Команда доступна только администратору."
	textRateLimited = "Слишком часто. Подождите немного."
)

// RejectNonAdmin answers admin-only commands sent by anyone else.
func RejectNonAdmin(c tele.Context) error {
	return tghelpers.SendText(c, textAdminOnly)
}

// RateLimited tells the user the update was dropped. Button presses get a
// toast instead of a new message.
func RateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: textRateLimited})
	}
	return tghelpers.SendText(c, textRateLimited)
}
