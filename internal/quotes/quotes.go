// Package quotes defines the records a chat owns and the store contract the
// conversation layer depends on.
package quotes

import (
	"context"
	"time"
)

// DefaultCategories are inserted into an empty categories table on startup.
var DefaultCategories = []string{"Такое себе", "Повседневное", "Точно в цель"}

// Entry types written to the full-text table.
const (
	EntryTypeQuote = "quote"
)

// Category is a named bucket for saved quotes. Quotes reference it by name.
type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// SavedQuote is a quote stored by a chat.
type SavedQuote struct {
	ID        int64     `db:"id"`
	Text      string    `db:"text"`
	Category  *string   `db:"category"`
	ChatID    int64     `db:"chatid"`
	CreatedAt time.Time `db:"timestamp"`
}

// CategoryName returns the category or "" when the quote has none.
func (q SavedQuote) CategoryName() string {
	if q.Category == nil {
		return ""
	}
	return *q.Category
}

// QuoteRef is the id/text pair shown in paginated listings.
type QuoteRef struct {
	ID   int64  `db:"id"`
	Text string `db:"text"`
}

// FullTextEntry is an append-only row of the search index table.
type FullTextEntry struct {
	Text      string    `db:"text"`
	ChatID    int64     `db:"chatid"`
	Type      string    `db:"type"`
	Timestamp time.Time `db:"timestamp"`
}

// Stats summarizes stored data for the admin report.
type Stats struct {
	Quotes     int `db:"quotes"`
	Chats      int `db:"chats"`
	Categories int `db:"categories"`
	Muted      int `db:"muted"`
}

// Store is the persistence contract consumed by the conversation machine.
// Each call is independent; no call spans a transaction with another.
//
// A chatID of 0 passed to SearchQuotes or ListCategoryQuotes means all chats.
type Store interface {
	ListCategories(ctx context.Context) ([]string, error)
	SaveQuote(ctx context.Context, chatID int64, text, category string) (int64, error)
	IndexText(ctx context.Context, entry FullTextEntry) error
	SearchQuotes(ctx context.Context, chatID int64, text string, limit, offset int) ([]string, error)
	GetQuoteByID(ctx context.Context, id int64) (SavedQuote, error)
	DeleteQuoteByID(ctx context.Context, id int64) error
	UpdateQuoteByID(ctx context.Context, id int64, text string, category *string) error
	CountQuotes(ctx context.Context, chatID int64, category *string) (int, error)
	ListQuotesPaged(ctx context.Context, chatID int64, category *string, limit, offset int) ([]QuoteRef, error)
	ListCategoryQuotes(ctx context.Context, category string, chatID int64) ([]string, error)
	GetMuteStatus(ctx context.Context, chatID int64) bool
	SetMuteStatus(ctx context.Context, chatID int64, muted bool) error
	Stats(ctx context.Context) (Stats, error)
}

// Quote is a random quote returned by a Provider. Author may be empty.
type Quote struct {
	Text   string
	Author string
}

// Provider fetches random quotes from an external source.
type Provider interface {
	FetchRandomQuote(ctx context.Context) (Quote, error)
}
