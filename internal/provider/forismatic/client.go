// Package forismatic fetches random Russian quotes from api.forismatic.com.
package forismatic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/quotebot/core/logger"
	"github.com/m3rciful/quotebot/core/metrics"
	"github.com/m3rciful/quotebot/internal/quotes"
)

const (
	// DefaultURL returns one random quote as JSON in Russian.
	DefaultURL     = "http://api.forismatic.com/api/1.0/?method=getQuote&format=json&lang=ru"
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 64 << 10
)

// ProviderError reports a failed, timed out or malformed fetch.
type ProviderError struct {
	Reason string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return "quote provider: " + e.Reason
	}
	return fmt.Sprintf("quote provider: %s: %v", e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Code is picked up by handler log summaries as err_code.
func (e *ProviderError) Code() string {
	return "PROVIDER_" + strings.ToUpper(e.Reason)
}

// Options configures Client.
type Options struct {
	URL     string
	Timeout time.Duration
	HTTP    *http.Client
}

// Client is a quotes.Provider backed by the forismatic API.
type Client struct {
	url  string
	http *http.Client
}

var _ quotes.Provider = (*Client)(nil)

// New builds a client. Zero options select the public endpoint and a 5s timeout.
func New(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{url: opts.URL, http: hc}
}

type payload struct {
	QuoteText   string `json:"quoteText"`
	QuoteAuthor string `json:"quoteAuthor"`
}

// FetchRandomQuote performs a single GET; there is no retry.
func (c *Client) FetchRandomQuote(ctx context.Context) (q quotes.Quote, err error) {
	start := time.Now()
	defer func() {
		metrics.ProviderFetches.WithLabelValues(metrics.Outcome(err)).Inc()
		attrs := []slog.Attr{
			slog.String("status", logger.Status(err)),
			slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
		}
		if err != nil {
			logger.Warn(ctx, logger.ComponentProvider, "quote.fetch", append(attrs, slog.String("err", err.Error()))...)
			return
		}
		logger.Debug(ctx, logger.ComponentProvider, "quote.fetch", attrs...)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return quotes.Quote{}, &ProviderError{Reason: "request", Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return quotes.Quote{}, &ProviderError{Reason: "transport", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return quotes.Quote{}, &ProviderError{Reason: "status", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return quotes.Quote{}, &ProviderError{Reason: "read", Err: err}
	}
	var p payload
	if err := json.Unmarshal(sanitize(body), &p); err != nil {
		return quotes.Quote{}, &ProviderError{Reason: "decode", Err: err}
	}

	text := strings.TrimSpace(p.QuoteText)
	if text == "" {
		return quotes.Quote{}, &ProviderError{Reason: "empty"}
	}
	return quotes.Quote{Text: text, Author: strings.TrimSpace(p.QuoteAuthor)}, nil
}

// sanitize drops the \' escape the API emits, which is not valid JSON.
func sanitize(body []byte) []byte {
	return []byte(strings.ReplaceAll(string(body), `\'`, `'`))
}
