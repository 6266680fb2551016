package conversation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/quotebot/internal/quotes"
)

// Main menu labels. The transport maps them back to commands.
const (
	LabelGetQuote     = "Получить цитату"
	LabelSaveQuote    = "Сохранить цитату"
	LabelMyQuotes     = "Мои цитаты"
	LabelShowCategory = "Показать категорию"
	LabelSearch       = "Поиск текста"
	LabelMute         = "🔕 Отключить звук"
	LabelUnmute       = "🔔 Включить звук"
)

const (
	textGreeting        = "Привет!\n\nС этим ботом ты станешь умнее!\nНо это не точно))"
	textHelp            = "Команды:\n/quote - случайная цитата\n/save - сохранить цитату\n/mine - мои цитаты по категориям\n/category - все цитаты категории\n/search - поиск по сохранённым\n/mute - звук уведомлений\n/cancel - отменить ввод"
	textProviderFailed  = "Не удалось получить цитату."
	textUnknownAuthor   = "Неизвестный автор"
	textAskQuote        = "Введите текст цитаты:"
	textAskCategory     = "Выберите категорию:"
	textAskSearch       = "Введите текст для поиска:"
	textAskEdit         = "Введите новый текст цитаты:"
	textSaved           = "Цитата сохранена в категорию \"%s\"!"
	textDeleted         = "Цитата успешно удалена!"
	textUpdated         = "Цитата обновлена!"
	textNotFound        = "Цитата не найдена."
	textNothingFound    = "Ничего не найдено."
	textSearchResults   = "Результаты поиска:"
	textCategoryEmpty   = "В категории \"%s\" пока нет цитат."
	textCategoryHeader  = "Категория \"%s\":"
	textPageHeader      = "Категория \"%s\" (стр. %d/%d):"
	textQuoteCategory   = "Категория: %s"
	textNoCategory      = "без категории"
	textCategoriesError = "Ошибка загрузки категорий."
	textStoreError      = "Произошла ошибка. Попробуйте ещё раз."
	textNoDraft         = "Нет цитаты для сохранения. Нажмите \"Сохранить цитату\"."
	textCancelled       = "Действие отменено."
	textNothingToCancel = "Нечего отменять."
	textMuted           = "🔇 Уведомления отключены."
	textUnmuted         = "🔊 Уведомления включены."
	textStats           = "Статистика:\nЦитат: %d\nЧатов: %d\nКатегорий: %d\nБез звука: %d"
	textNoCategories    = "Нет категорий"

	btnSave    = "Сохранить цитату"
	btnNew     = "Получить новую цитату"
	btnEdit    = "✏️ Редактировать"
	btnDelete  = "🗑 Удалить"
	btnCancel  = "❌ Отмена"
	btnPrev    = "◀️"
	btnNext    = "▶️"
	pageFormat = "%d/%d"
)

const (
	categoriesPerRow = 3
	buttonTextLimit  = 40
	messageLimit     = 4000
)

// FormatQuote renders a fetched quote as `"text" - author`.
func FormatQuote(q quotes.Quote) string {
	author := strings.TrimSpace(q.Author)
	if author == "" {
		author = textUnknownAuthor
	}
	return `"` + q.Text + `" - ` + author
}

// parseFormattedQuote recovers the quote text from a message produced by FormatQuote.
func parseFormattedQuote(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == textProviderFailed {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		if end := strings.LastIndex(s, `" - `); end > 0 {
			return s[1:end]
		}
	}
	return s
}

// MuteLabel is the menu label that flips the current mute state.
func MuteLabel(muted bool) string {
	if muted {
		return LabelUnmute
	}
	return LabelMute
}

// MainMenu returns the persistent keyboard rows for the given mute state.
func MainMenu(muted bool) [][]string {
	return [][]string{
		{LabelGetQuote, LabelSaveQuote},
		{LabelMyQuotes, LabelShowCategory, LabelSearch},
		{MuteLabel(muted)},
	}
}

func numbered(header string, items []string, from int) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for i, it := range items {
		line := fmt.Sprintf("\n%d. %s", from+i, it)
		if utf8.RuneCountInString(b.String())+utf8.RuneCountInString(line) > messageLimit {
			b.WriteString("\n…")
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}

func categoryKeyboard(names []string, kind ActionKind) [][]Button {
	if len(names) == 0 {
		return [][]Button{{{Text: textNoCategories, Action: Action{Kind: ActNoop}}}}
	}
	rows := make([][]Button, 0, (len(names)+categoriesPerRow-1)/categoriesPerRow)
	for i := 0; i < len(names); i += categoriesPerRow {
		end := i + categoriesPerRow
		if end > len(names) {
			end = len(names)
		}
		row := make([]Button, 0, end-i)
		for _, name := range names[i:end] {
			row = append(row, Button{Text: name, Action: Action{Kind: kind, Category: name}})
		}
		rows = append(rows, row)
	}
	return rows
}

func cancelRow() []Button {
	return []Button{{Text: btnCancel, Action: Action{Kind: ActCancel}}}
}

func fetchedQuoteKeyboard() [][]Button {
	return [][]Button{
		{{Text: btnSave, Action: Action{Kind: ActSaveFetched}}},
		{{Text: btnNew, Action: Action{Kind: ActNewQuote}}},
	}
}

func quoteKeyboard(id int64) [][]Button {
	return [][]Button{{
		{Text: btnEdit, Action: Action{Kind: ActEditQuote, QuoteID: id}},
		{Text: btnDelete, Action: Action{Kind: ActDeleteQuote, QuoteID: id}},
	}}
}
