// Package keyboard builds reply and inline keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is one inline button. Unique routes the callback; Data is its payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// ReplyButtons builds a resizable reply keyboard, one row per argument.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	keys := make([][]tele.ReplyButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.ReplyButton, len(row))
		for i, label := range row {
			buttons[i] = tele.ReplyButton{Text: label}
		}
		keys = append(keys, buttons)
	}
	return &tele.ReplyMarkup{ResizeKeyboard: true, ReplyKeyboard: keys}
}

// InlineButtonsRows builds an inline keyboard, one row per argument.
// Telebot encodes each button as \f<unique>|<data> when the markup is sent.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	keys := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.InlineButton, len(row))
		for i, b := range row {
			buttons[i] = tele.InlineButton{Text: b.Text, Unique: b.Unique, Data: b.Data}
		}
		keys = append(keys, buttons)
	}
	return &tele.ReplyMarkup{InlineKeyboard: keys}
}
