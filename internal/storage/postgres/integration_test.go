package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	coreconfig "github.com/m3rciful/quotebot/core/config"
	"github.com/m3rciful/quotebot/core/database"
	"github.com/m3rciful/quotebot/core/logger"
	"github.com/m3rciful/quotebot/internal/quotes"
	"github.com/m3rciful/quotebot/internal/storage/postgres"
	"github.com/m3rciful/quotebot/migrations"
)

func startPostgres(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	require.NoError(t, logger.InitLogger(&coreconfig.Config{}))

	ctx := context.Background()
	pgC, err := tcPostgres.RunContainer(ctx,
		tcPostgres.WithDatabase("quotes"),
		tcPostgres.WithUsername("bot"),
		tcPostgres.WithPassword("bot"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.Config{URL: fmt.Sprintf("postgres://bot:bot@%s:%s/quotes?sslmode=disable", host, port.Port())}
	require.NoError(t, cfg.Normalize())
	require.NoError(t, database.RunMigrations(cfg, migrations.FS))

	db, err := sqlx.Connect("postgres", cfg.DSN())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	st := postgres.New(db)
	_, err = st.SeedCategories(ctx, quotes.DefaultCategories)
	require.NoError(t, err)
	return st
}

func TestStoreRoundTrip(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	cats, err := st.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, quotes.DefaultCategories, cats)

	id, err := st.SaveQuote(ctx, 100, "Hello World", cats[1])
	require.NoError(t, err)
	require.NoError(t, st.IndexText(ctx, quotes.FullTextEntry{Text: "Hello World", ChatID: 100, Type: quotes.EntryTypeQuote}))

	got, err := st.GetQuoteByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got.Text)
	assert.Equal(t, cats[1], got.CategoryName())

	found, err := st.SearchQuotes(ctx, 100, "hello", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello World"}, found)

	none, err := st.SearchQuotes(ctx, 100, "xyz123", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	other, err := st.SearchQuotes(ctx, 200, "hello", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, st.UpdateQuoteByID(ctx, id, "Hello again", got.Category))
	edited, err := st.GetQuoteByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hello again", edited.Text)
	assert.Equal(t, cats[1], edited.CategoryName())

	require.NoError(t, st.DeleteQuoteByID(ctx, id))
	_, err = st.GetQuoteByID(ctx, id)
	assert.ErrorIs(t, err, quotes.ErrNotFound)
	require.NoError(t, st.DeleteQuoteByID(ctx, id))
	assert.ErrorIs(t, st.UpdateQuoteByID(ctx, id, "x", nil), quotes.ErrNotFound)
}

func TestStorePaginationAndMute(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()
	cat := quotes.DefaultCategories[0]

	for i := 0; i < 7; i++ {
		_, err := st.SaveQuote(ctx, 5, fmt.Sprintf("quote %d", i), cat)
		require.NoError(t, err)
	}
	n, err := st.CountQuotes(ctx, 5, &cat)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	page, err := st.ListQuotesPaged(ctx, 5, &cat, 5, 5)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "quote 5", page[0].Text)

	all, err := st.ListCategoryQuotes(ctx, cat, 0)
	require.NoError(t, err)
	assert.Len(t, all, 7)

	assert.False(t, st.GetMuteStatus(ctx, 5))
	require.NoError(t, st.SetMuteStatus(ctx, 5, true))
	assert.True(t, st.GetMuteStatus(ctx, 5))
	require.NoError(t, st.SetMuteStatus(ctx, 5, false))
	assert.False(t, st.GetMuteStatus(ctx, 5))

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Quotes)
	assert.Equal(t, 1, stats.Chats)
}
