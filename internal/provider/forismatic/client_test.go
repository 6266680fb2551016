package forismatic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(Options{URL: srv.URL, Timeout: time.Second})
}

func TestFetchRandomQuote(t *testing.T) {
	c := serve(t, http.StatusOK, `{"quoteText":"Знание - сила. ","quoteAuthor":"Фрэнсис Бэкон","senderName":"","quoteLink":""}`)
	q, err := c.FetchRandomQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Знание - сила.", q.Text)
	assert.Equal(t, "Фрэнсис Бэкон", q.Author)
}

func TestFetchRandomQuoteEmptyAuthor(t *testing.T) {
	c := serve(t, http.StatusOK, `{"quoteText":"Без автора","quoteAuthor":""}`)
	q, err := c.FetchRandomQuote(context.Background())
	require.NoError(t, err)
	assert.Empty(t, q.Author)
}

func TestFetchRandomQuoteToleratesEscapedApostrophe(t *testing.T) {
	c := serve(t, http.StatusOK, `{"quoteText":"It\'s fine","quoteAuthor":""}`)
	q, err := c.FetchRandomQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "It's fine", q.Text)
}

func TestFetchRandomQuoteFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{"status", http.StatusInternalServerError, "oops", "status"},
		{"malformed", http.StatusOK, "{not json", "decode"},
		{"empty text", http.StatusOK, `{"quoteText":"  ","quoteAuthor":"x"}`, "empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := serve(t, tc.status, tc.body).FetchRandomQuote(context.Background())
			var perr *ProviderError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tc.reason, perr.Reason)
		})
	}
}

func TestFetchRandomQuoteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(Options{URL: url, Timeout: time.Second}).FetchRandomQuote(context.Background())
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "transport", perr.Reason)
	assert.Equal(t, "PROVIDER_TRANSPORT", perr.Code())
}
