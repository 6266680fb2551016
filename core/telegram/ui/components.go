package ui

import (
	"github.com/m3rciful/quotebot/core/telegram/format"

	tele "gopkg.in/telebot.v4"
)

// ArticleTitleLimit caps the title shown in the inline results list.
const ArticleTitleLimit = 60

// NewArticle creates an inline article whose message is text and whose title
// is text shortened to ArticleTitleLimit runes.
func NewArticle(id, text string) *tele.ArticleResult {
	result := &tele.ArticleResult{
		Title: format.Shorten(text, ArticleTitleLimit),
		Text:  text,
	}
	result.SetResultID(id)
	return result
}
