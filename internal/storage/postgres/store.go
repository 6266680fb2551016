// Package postgres implements quotes.Store on top of sqlx and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/quotebot/core/logger"
	"github.com/m3rciful/quotebot/core/metrics"
	"github.com/m3rciful/quotebot/internal/quotes"
)

const (
	qListCategories  = `SELECT name FROM categories ORDER BY id`
	qCountCategories = `SELECT COUNT(*) FROM categories`
	qInsertCategory  = `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`

	qSaveQuote = `INSERT INTO saved_quotes (text, category, chatid) VALUES ($1, $2, $3) RETURNING id`
	qIndexText = `INSERT INTO all_texts_fts (text, chatid, type, timestamp) VALUES ($1, $2, $3, $4)`

	qSearchAll  = `SELECT text FROM saved_quotes WHERE text ILIKE $1 ORDER BY id LIMIT $2 OFFSET $3`
	qSearchChat = `SELECT text FROM saved_quotes WHERE chatid = $1 AND text ILIKE $2 ORDER BY id LIMIT $3 OFFSET $4`

	qGetQuote    = `SELECT id, text, category, chatid, timestamp FROM saved_quotes WHERE id = $1`
	qDeleteQuote = `DELETE FROM saved_quotes WHERE id = $1`
	qUpdateQuote = `UPDATE saved_quotes SET text = $1, category = $2 WHERE id = $3`

	qCountQuotes = `SELECT COUNT(*) FROM saved_quotes WHERE chatid = $1 AND ($2::text IS NULL OR category = $2)`
	qListPaged   = `SELECT id, text FROM saved_quotes WHERE chatid = $1 AND ($2::text IS NULL OR category = $2) ORDER BY id LIMIT $3 OFFSET $4`
	qListByCat   = `SELECT text FROM saved_quotes WHERE category = $1 AND ($2::bigint = 0 OR chatid = $2) ORDER BY id`

	qGetMute = `SELECT mute FROM chat_settings WHERE chat_id = $1`
	qSetMute = `INSERT INTO chat_settings (chat_id, mute) VALUES ($1, $2) ON CONFLICT (chat_id) DO UPDATE SET mute = EXCLUDED.mute`

	qStats = `SELECT
	(SELECT COUNT(*) FROM saved_quotes) AS quotes,
	(SELECT COUNT(DISTINCT chatid) FROM saved_quotes) AS chats,
	(SELECT COUNT(*) FROM categories) AS categories,
	(SELECT COUNT(*) FROM chat_settings WHERE mute) AS muted`
)

// Store is the Postgres-backed quote repository.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ quotes.Store = (*Store)(nil)

// New wraps an open connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// ListCategories returns category names in insertion order.
func (s *Store) ListCategories(ctx context.Context) (names []string, err error) {
	defer s.observe(ctx, "categories.list", time.Now(), &err)
	err = s.db.SelectContext(ctx, &names, qListCategories)
	return names, quotes.WrapStore("categories.list", err)
}

// SeedCategories inserts names when the categories table is empty and reports how many were added.
func (s *Store) SeedCategories(ctx context.Context, names []string) (added int, err error) {
	defer s.observe(ctx, "categories.seed", time.Now(), &err)
	var count int
	if err = s.db.GetContext(ctx, &count, qCountCategories); err != nil {
		return 0, quotes.WrapStore("categories.seed", err)
	}
	if count > 0 {
		return 0, nil
	}
	for _, name := range names {
		res, execErr := s.db.ExecContext(ctx, qInsertCategory, name)
		if execErr != nil {
			err = quotes.WrapStore("categories.seed", execErr)
			return added, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, nil
}

// SaveQuote stores text under category for chatID and returns the new id.
func (s *Store) SaveQuote(ctx context.Context, chatID int64, text, category string) (id int64, err error) {
	defer s.observe(ctx, "quotes.save", time.Now(), &err)
	var cat *string
	if category != "" {
		cat = &category
	}
	err = s.db.GetContext(ctx, &id, qSaveQuote, text, cat, chatID)
	return id, quotes.WrapStore("quotes.save", err)
}

// IndexText appends a full-text row. Blank text is skipped.
func (s *Store) IndexText(ctx context.Context, entry quotes.FullTextEntry) (err error) {
	if strings.TrimSpace(entry.Text) == "" {
		return nil
	}
	defer s.observe(ctx, "fts.append", time.Now(), &err)
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	_, err = s.db.ExecContext(ctx, qIndexText, entry.Text, entry.ChatID, entry.Type, ts)
	return quotes.WrapStore("fts.append", err)
}

// SearchQuotes runs a case-insensitive substring match; chatID 0 searches every chat.
func (s *Store) SearchQuotes(ctx context.Context, chatID int64, text string, limit, offset int) (out []string, err error) {
	defer s.observe(ctx, "quotes.search", time.Now(), &err)
	pattern := "%" + escapeLike(text) + "%"
	if chatID == 0 {
		err = s.db.SelectContext(ctx, &out, qSearchAll, pattern, limit, offset)
	} else {
		err = s.db.SelectContext(ctx, &out, qSearchChat, chatID, pattern, limit, offset)
	}
	return out, quotes.WrapStore("quotes.search", err)
}

// GetQuoteByID returns quotes.ErrNotFound for unknown ids.
func (s *Store) GetQuoteByID(ctx context.Context, id int64) (q quotes.SavedQuote, err error) {
	defer s.observe(ctx, "quotes.get", time.Now(), &err)
	err = s.db.GetContext(ctx, &q, qGetQuote, id)
	if errors.Is(err, sql.ErrNoRows) {
		err = quotes.ErrNotFound
	}
	return q, quotes.WrapStore("quotes.get", err)
}

// DeleteQuoteByID removes the quote; deleting an absent id is not an error.
func (s *Store) DeleteQuoteByID(ctx context.Context, id int64) (err error) {
	defer s.observe(ctx, "quotes.delete", time.Now(), &err)
	_, err = s.db.ExecContext(ctx, qDeleteQuote, id)
	return quotes.WrapStore("quotes.delete", err)
}

// UpdateQuoteByID replaces text and category; quotes.ErrNotFound when id is absent.
func (s *Store) UpdateQuoteByID(ctx context.Context, id int64, text string, category *string) (err error) {
	defer s.observe(ctx, "quotes.update", time.Now(), &err)
	res, err := s.db.ExecContext(ctx, qUpdateQuote, text, category, id)
	if err != nil {
		return quotes.WrapStore("quotes.update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return quotes.WrapStore("quotes.update", err)
	}
	if n == 0 {
		return quotes.ErrNotFound
	}
	return nil
}

// CountQuotes counts chatID's quotes, optionally restricted to one category.
func (s *Store) CountQuotes(ctx context.Context, chatID int64, category *string) (n int, err error) {
	defer s.observe(ctx, "quotes.count", time.Now(), &err)
	err = s.db.GetContext(ctx, &n, qCountQuotes, chatID, category)
	return n, quotes.WrapStore("quotes.count", err)
}

// ListQuotesPaged returns one page of chatID's quotes ordered by id.
func (s *Store) ListQuotesPaged(ctx context.Context, chatID int64, category *string, limit, offset int) (out []quotes.QuoteRef, err error) {
	defer s.observe(ctx, "quotes.page", time.Now(), &err)
	err = s.db.SelectContext(ctx, &out, qListPaged, chatID, category, limit, offset)
	return out, quotes.WrapStore("quotes.page", err)
}

// ListCategoryQuotes returns every quote text in category; chatID 0 spans all chats.
func (s *Store) ListCategoryQuotes(ctx context.Context, category string, chatID int64) (out []string, err error) {
	defer s.observe(ctx, "quotes.by_category", time.Now(), &err)
	err = s.db.SelectContext(ctx, &out, qListByCat, category, chatID)
	return out, quotes.WrapStore("quotes.by_category", err)
}

// GetMuteStatus never fails: a missing row or a read error both yield false.
func (s *Store) GetMuteStatus(ctx context.Context, chatID int64) bool {
	var (
		muted bool
		err   error
	)
	defer s.observe(ctx, "settings.mute.get", time.Now(), &err)
	err = s.db.GetContext(ctx, &muted, qGetMute, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return false
	}
	return err == nil && muted
}

// SetMuteStatus upserts the chat's mute flag.
func (s *Store) SetMuteStatus(ctx context.Context, chatID int64, muted bool) (err error) {
	defer s.observe(ctx, "settings.mute.set", time.Now(), &err)
	_, err = s.db.ExecContext(ctx, qSetMute, chatID, muted)
	return quotes.WrapStore("settings.mute.set", err)
}

// Stats reports table totals.
func (s *Store) Stats(ctx context.Context) (st quotes.Stats, err error) {
	defer s.observe(ctx, "stats", time.Now(), &err)
	err = s.db.GetContext(ctx, &st, qStats)
	return st, quotes.WrapStore("stats", err)
}

func (s *Store) observe(ctx context.Context, op string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	if errors.Is(err, quotes.ErrNotFound) {
		err = nil
	}
	metrics.ObserveStore(op, start, err)
	if err != nil {
		logger.Error(ctx, logger.ComponentQuotes, "store.fail",
			slog.String("op", op),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
