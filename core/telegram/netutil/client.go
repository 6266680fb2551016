// Package netutil builds outbound HTTP clients shared by the Telegram
// transport and the quote provider.
package netutil

import (
	"net"
	"net/http"
	"time"
)

// ClientOptions tunes NewClient. Zero durations fall back to defaults.
type ClientOptions struct {
	Timeout               time.Duration
	DialTimeout           time.Duration
	ResponseHeaderTimeout time.Duration
	// Retries is the number of extra attempts after a transient failure; 0 disables retry.
	Retries int
	Backoff time.Duration
}

const (
	defaultTimeout        = 30 * time.Second
	defaultDialTimeout    = 5 * time.Second
	defaultHeaderTimeout  = 5 * time.Second
	defaultIdleConnTimout = 30 * time.Second
)

// NewClient returns an HTTP client with bounded dial, TLS and header timeouts.
func NewClient(opts ClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.ResponseHeaderTimeout <= 0 {
		opts.ResponseHeaderTimeout = defaultHeaderTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: opts.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimout,
		TLSHandshakeTimeout:   opts.DialTimeout,
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
	}

	var rt http.RoundTripper = transport
	if opts.Retries > 0 {
		rt = &RetryTransport{Base: transport, Retries: opts.Retries, Backoff: opts.Backoff}
	}
	return &http.Client{Timeout: opts.Timeout, Transport: rt}
}

// RetryTransport repeats a request after errors accepted by ShouldRetry,
// waiting Backoff*attempt between tries. Requests with a body that cannot
// be replayed are not retried.
type RetryTransport struct {
	Base    http.RoundTripper
	Retries int
	Backoff time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	var lastErr error
	for attempt := 0; attempt <= t.Retries; attempt++ {
		try := req
		if attempt > 0 {
			if req.Body != nil && req.GetBody == nil {
				return nil, lastErr
			}
			try = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				try.Body = body
			}
		}

		resp, err := base.RoundTrip(try)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !ShouldRetry(err) || attempt == t.Retries {
			break
		}

		if delay := t.Backoff * time.Duration(attempt+1); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-req.Context().Done():
				timer.Stop()
				return nil, req.Context().Err()
			case <-timer.C:
			}
		}
	}
	return nil, lastErr
}
