package telegram

import (
	"testing"

	coreconfig "github.com/m3rciful/quotebot/core/config"
)

func names(chain []Middleware) []string {
	out := make([]string, 0, len(chain))
	for _, mw := range chain {
		out = append(out, mw.Name)
	}
	return out
}

func TestDefaultMiddlewaresOrder(t *testing.T) {
	got := names(DefaultMiddlewares(&coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500}}, nil))
	want := []string{"recover", "rate_limit", "logger", "metrics"}
	if len(got) != len(want) {
		t.Fatalf("chain = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chain = %v, want %v", got, want)
		}
	}

	if got := names(DefaultMiddlewares(nil, nil)); len(got) != 3 || got[1] != "logger" {
		t.Fatalf("chain without config = %v", got)
	}
}
