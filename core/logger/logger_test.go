package logger

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/quotebot/core/config"
)

func TestParseRatio(t *testing.T) {
	cases := map[string][2]int{
		"1/50": {1, 50},
		"20":   {1, 20},
		" 3/4": {3, 4},
		"0":    {0, 0},
		"x/2":  {0, 0},
		"1/-2": {0, 0},
	}
	for in, want := range cases {
		n, d := parseRatio(in)
		if n != want[0] || d != want[1] {
			t.Fatalf("parseRatio(%q) = %d/%d, want %d/%d", in, n, d, want[0], want[1])
		}
	}
}

func TestOptionsFrom(t *testing.T) {
	dir := t.TempDir()
	opts := optionsFrom(&coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Level:     "DEBUG",
		Profile:   "dev",
		Dir:       dir,
		KeysOrder: "event, level",
	}})
	if opts.level != slog.LevelDebug || opts.format != formatKV {
		t.Fatalf("level/format = %v/%v", opts.level, opts.format)
	}
	if opts.file != filepath.Join(dir, "bot.log") {
		t.Fatalf("file = %q", opts.file)
	}
	if len(opts.keyOrder) != 2 || opts.keyOrder[0] != "event" {
		t.Fatalf("key order = %v", opts.keyOrder)
	}
	if opts.sampleNum != 1 || opts.sampleDen != 50 {
		t.Fatalf("sample = %d/%d", opts.sampleNum, opts.sampleDen)
	}

	prod := optionsFrom(nil)
	if prod.profile != "prod" || prod.format != formatJSON || prod.file != "" {
		t.Fatalf("nil config options = %+v", prod)
	}
}

func TestRatioSampler(t *testing.T) {
	var s ratioSampler
	if !s.Allow() {
		t.Fatal("zero sampler must allow")
	}
	s.Set(1, 3)
	got := 0
	for i := 0; i < 9; i++ {
		if s.Allow() {
			got++
		}
	}
	if got != 3 {
		t.Fatalf("allowed %d of 9, want 3", got)
	}
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID("100:-36:7"); got != "2s.-10.7" {
		t.Fatalf("compact = %q", got)
	}
	if got := CompactRID("abc"); got != "abc" {
		t.Fatalf("passthrough = %q", got)
	}
}

func TestContextMeta(t *testing.T) {
	ctx := WithUpdateMeta(context.Background(), 9, 8, -7)
	if UpdateIDFrom(ctx) != 9 || UserIDFrom(ctx) != 8 || ChatIDFrom(ctx) != -7 {
		t.Fatal("meta lost")
	}
	if WithHandler(ctx, "") != ctx {
		t.Fatal("empty handler must not wrap")
	}
	if UserIDFrom(context.Background()) != 0 || RIDFrom(context.Background()) != "" {
		t.Fatal("empty context")
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\nd", 4); got != "abc\n" {
		t.Fatalf("sanitize = %q", got)
	}
	if SanitizeLimit("abc", 0) != "" {
		t.Fatal("zero limit")
	}
}

func TestHelpers(t *testing.T) {
	if RoundMS(-time.Second) != 0 || RoundMS(1499*time.Microsecond) != time.Millisecond {
		t.Fatal("RoundMS")
	}
	s, more := SummarizeStrings([]string{"a", "b", "c"}, 2)
	if s != "a, b" || !more {
		t.Fatalf("summary = %q %v", s, more)
	}
	if Status(nil) != "ok" || Status(context.Canceled) != "error" {
		t.Fatal("Status")
	}
}

func TestEventBeforeInitIsNoop(t *testing.T) {
	saved := L
	L = nil
	defer func() { L = saved }()
	Info(context.Background(), "app", "noop")
}
