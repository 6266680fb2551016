package bot

import (
	"strconv"

	tghelpers "github.com/m3rciful/quotebot/core/telegram/helpers"
	"github.com/m3rciful/quotebot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// InlineQuery answers "@bot <text>" with the caller's matching quotes.
func (h *Handlers) InlineQuery(c tele.Context) error {
	q := c.Query()
	if q == nil || q.Sender == nil {
		return nil
	}
	found, err := h.machine.Search(tghelpers.BuildContext(c), q.Sender.ID, q.Text)
	if err != nil {
		return err
	}
	results := make(tele.Results, 0, len(found))
	for i, text := range found {
		results = append(results, ui.NewArticle(strconv.Itoa(i), text))
	}
	return c.Answer(&tele.QueryResponse{Results: results, IsPersonal: true})
}
