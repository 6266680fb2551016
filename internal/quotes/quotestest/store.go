// Package quotestest provides in-memory fakes of the quotes contracts for tests.
package quotestest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/quotebot/internal/quotes"
)

// ErrInjected is returned by operations listed in Store.FailOps.
var ErrInjected = errors.New("injected failure")

// Store is an in-memory quotes.Store. Set FailOps["quotes.save"] and friends to force errors.
type Store struct {
	mu         sync.Mutex
	nextID     int64
	categories []string
	quotes     map[int64]quotes.SavedQuote
	index      []quotes.FullTextEntry
	mute       map[int64]bool

	FailOps map[string]bool
}

var _ quotes.Store = (*Store)(nil)

// NewStore returns a store seeded with categories.
func NewStore(categories ...string) *Store {
	return &Store{
		categories: append([]string(nil), categories...),
		quotes:     make(map[int64]quotes.SavedQuote),
		mute:       make(map[int64]bool),
		FailOps:    make(map[string]bool),
	}
}

func (s *Store) fail(op string) error {
	if s.FailOps[op] {
		return quotes.WrapStore(op, ErrInjected)
	}
	return nil
}

func (s *Store) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.quotes))
	for id := range s.quotes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) ListCategories(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("categories.list"); err != nil {
		return nil, err
	}
	return append([]string(nil), s.categories...), nil
}

func (s *Store) SaveQuote(_ context.Context, chatID int64, text, category string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("quotes.save"); err != nil {
		return 0, err
	}
	s.nextID++
	cat := category
	s.quotes[s.nextID] = quotes.SavedQuote{ID: s.nextID, Text: text, Category: &cat, ChatID: chatID, CreatedAt: time.Now()}
	return s.nextID, nil
}

func (s *Store) IndexText(_ context.Context, entry quotes.FullTextEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("fts.append"); err != nil {
		return err
	}
	if strings.TrimSpace(entry.Text) == "" {
		return nil
	}
	s.index = append(s.index, entry)
	return nil
}

// Indexed returns a copy of the full-text entries written so far.
func (s *Store) Indexed() []quotes.FullTextEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]quotes.FullTextEntry(nil), s.index...)
}

func (s *Store) SearchQuotes(_ context.Context, chatID int64, text string, limit, offset int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("quotes.search"); err != nil {
		return nil, err
	}
	needle := strings.ToLower(text)
	var out []string
	for _, id := range s.sortedIDs() {
		q := s.quotes[id]
		if chatID != 0 && q.ChatID != chatID {
			continue
		}
		if strings.Contains(strings.ToLower(q.Text), needle) {
			out = append(out, q.Text)
		}
	}
	return window(out, limit, offset), nil
}

func (s *Store) GetQuoteByID(_ context.Context, id int64) (quotes.SavedQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("quotes.get"); err != nil {
		return quotes.SavedQuote{}, err
	}
	q, ok := s.quotes[id]
	if !ok {
		return quotes.SavedQuote{}, quotes.ErrNotFound
	}
	return q, nil
}

func (s *Store) DeleteQuoteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("quotes.delete"); err != nil {
		return err
	}
	delete(s.quotes, id)
	return nil
}

func (s *Store) UpdateQuoteByID(_ context.Context, id int64, text string, category *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("quotes.update"); err != nil {
		return err
	}
	q, ok := s.quotes[id]
	if !ok {
		return quotes.ErrNotFound
	}
	q.Text = text
	q.Category = category
	s.quotes[id] = q
	return nil
}

func (s *Store) matching(chatID int64, category *string) []quotes.SavedQuote {
	var out []quotes.SavedQuote
	for _, id := range s.sortedIDs() {
		q := s.quotes[id]
		if q.ChatID != chatID {
			continue
		}
		if category != nil && q.CategoryName() != *category {
			continue
		}
		out = append(out, q)
	}
	return out
}

func (s *Store) CountQuotes(_ context.Context, chatID int64, category *string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("quotes.count"); err != nil {
		return 0, err
	}
	return len(s.matching(chatID, category)), nil
}

func (s *Store) ListQuotesPaged(_ context.Context, chatID int64, category *string, limit, offset int) ([]quotes.QuoteRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("quotes.page"); err != nil {
		return nil, err
	}
	var refs []quotes.QuoteRef
	for _, q := range s.matching(chatID, category) {
		refs = append(refs, quotes.QuoteRef{ID: q.ID, Text: q.Text})
	}
	return window(refs, limit, offset), nil
}

func (s *Store) ListCategoryQuotes(_ context.Context, category string, chatID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("quotes.by_category"); err != nil {
		return nil, err
	}
	var out []string
	for _, id := range s.sortedIDs() {
		q := s.quotes[id]
		if q.CategoryName() != category || (chatID != 0 && q.ChatID != chatID) {
			continue
		}
		out = append(out, q.Text)
	}
	return out, nil
}

func (s *Store) GetMuteStatus(_ context.Context, chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mute[chatID]
}

func (s *Store) SetMuteStatus(_ context.Context, chatID int64, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("settings.mute.set"); err != nil {
		return err
	}
	s.mute[chatID] = muted
	return nil
}

func (s *Store) Stats(context.Context) (quotes.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("stats"); err != nil {
		return quotes.Stats{}, err
	}
	chats := make(map[int64]struct{})
	for _, q := range s.quotes {
		chats[q.ChatID] = struct{}{}
	}
	muted := 0
	for _, m := range s.mute {
		if m {
			muted++
		}
	}
	return quotes.Stats{Quotes: len(s.quotes), Chats: len(chats), Categories: len(s.categories), Muted: muted}, nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Provider is a quotes.Provider returning Quote or Err.
type Provider struct {
	Quote quotes.Quote
	Err   error
	Calls int
}

func (p *Provider) FetchRandomQuote(context.Context) (quotes.Quote, error) {
	p.Calls++
	if p.Err != nil {
		return quotes.Quote{}, p.Err
	}
	return p.Quote, nil
}
