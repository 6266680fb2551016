// Package metrics exposes Prometheus collectors shared by the bot runtime.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/quotebot/core/logger"
)

const namespace = "quotebot"

var (
	// Registry holds every collector below plus Go/process collectors.
	Registry = prometheus.NewRegistry()

	// Updates counts received Telegram updates by kind.
	Updates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Telegram updates received, by kind.",
	}, []string{"kind"})

	// Handlers observes handler latency by handler name and outcome.
	Handlers = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "handler_duration_seconds",
		Help:      "Handler execution time.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"handler", "outcome"})

	// ProviderFetches counts random quote fetches by outcome.
	ProviderFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_fetches_total",
		Help:      "Random quote API calls, by outcome.",
	}, []string{"outcome"})

	// StoreOps observes store call latency by operation and outcome.
	StoreOps = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_op_duration_seconds",
		Help:      "Quote store operation time.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "outcome"})

	// SendFailures counts outbound Telegram calls that exhausted retries.
	SendFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "send_failures_total",
		Help:      "Outbound Telegram calls that failed after retries.",
	}, []string{"action", "kind"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Updates, Handlers, ProviderFetches, StoreOps, SendFailures,
	)
}

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// ObserveStore records a store call that started at start.
func ObserveStore(op string, start time.Time, err error) {
	StoreOps.WithLabelValues(op, Outcome(err)).Observe(time.Since(start).Seconds())
}

// Serve exposes /metrics on addr until ctx is done. An empty addr disables the server.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info(ctx, "metrics", "metrics.listen", slog.String("listen", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
