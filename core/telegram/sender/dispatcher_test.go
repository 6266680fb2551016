package sender

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/m3rciful/quotebot/core/metrics"

	tele "gopkg.in/telebot.v4"
)

func TestDispatcherRunsQueuedJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, QueueSize: 8})
	var n atomic.Int32
	for i := 0; i < 5; i++ {
		if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			n.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	d.Close()

	if got := n.Load(); got != 5 {
		t.Fatalf("ran %d jobs, want 5", got)
	}
	if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("enqueue after close: %v", err)
	}
}

func TestDispatcherCountsFailures(t *testing.T) {
	before := testutil.ToFloat64(metrics.SendFailures.WithLabelValues("send.test", "http_4xx"))

	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var attempts atomic.Int32
	_ = d.Enqueue(context.Background(), "send.test", "sendMessage", func() error {
		attempts.Add(1)
		return errors.New("telegram: Bad Request: message is not modified (400)")
	})
	d.Close()

	if attempts.Load() != 1 {
		t.Fatalf("non-retryable error retried %d times", attempts.Load())
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("error count = %d", d.ErrorCount())
	}
	after := testutil.ToFloat64(metrics.SendFailures.WithLabelValues("send.test", "http_4xx"))
	if after-before != 1 {
		t.Fatalf("send failures delta = %v", after-before)
	}
}

func TestEnqueueNilRun(t *testing.T) {
	d := NewDispatcher(Options{})
	defer d.Close()
	if err := d.Enqueue(context.Background(), "a", "b", nil); err == nil {
		t.Fatal("expected error for nil run")
	}
}

func TestRedactToken(t *testing.T) {
	msg := redactToken(`Post "https://api.telegram.org/bot123:ABC-def/sendMessage": timeout`)
	if want := `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout`; msg != want {
		t.Fatalf("got %q", msg)
	}
}

func TestRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var attempts atomic.Int32
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if attempts.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		}
		return nil
	})
	d.Close()

	if attempts.Load() != 3 || d.ErrorCount() != 0 {
		t.Fatalf("attempts=%d failed=%d", attempts.Load(), d.ErrorCount())
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]error{
		"timeout":  context.DeadlineExceeded,
		"dns":      &net.DNSError{Err: "no such host"},
		"dial":     &net.OpError{Op: "dial", Err: errors.New("refused")},
		"http_5xx": errors.New("telegram: Internal Server Error (502)"),
		"http_4xx": &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"},
		"unknown":  errors.New("boom"),
	}
	for want, err := range cases {
		if got := classify(err); got != want {
			t.Errorf("classify(%v) = %q, want %q", err, got, want)
		}
	}
}
