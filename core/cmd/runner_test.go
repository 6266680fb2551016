package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/quotebot/core/config"
	coretelegram "github.com/m3rciful/quotebot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct {
	services []func(context.Context) error
}

func (a app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a app) Background() []func(context.Context) error { return a.services }

func baseOptions(a TelegramApp, run func(context.Context, coretelegram.RunOptions) error) Options {
	return Options{
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(context.Context, ConfigCarrier) (TelegramApp, error) { return a, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram:    run,
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("QUOTEBOT_CONFIG", "/etc/quotebot.yaml")
	if got := ResolveConfigPath("./local.yaml", "QUOTEBOT_CONFIG"); got != "./local.yaml" {
		t.Fatalf("explicit path lost: %q", got)
	}
	if got := ResolveConfigPath("", "QUOTEBOT_CONFIG"); got != "/etc/quotebot.yaml" {
		t.Fatalf("env path = %q", got)
	}
	t.Setenv("CONFIG_PATH", "")
	if got := ResolveConfigPath("", ""); got != "" {
		t.Fatalf("empty path = %q", got)
	}
}

func TestRunStopsBackgroundWhenBotReturns(t *testing.T) {
	stopped := make(chan struct{})
	a := app{services: []func(context.Context) error{
		func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return nil
		},
	}}
	var hooks coretelegram.RunOptions
	err := Run(context.Background(), baseOptions(a, func(ctx context.Context, o coretelegram.RunOptions) error {
		hooks = o
		return nil
	}))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("background service still running")
	}
	if hooks.OnStart == nil || hooks.OnStop == nil {
		t.Fatal("lifecycle hooks must be installed")
	}
}

func TestRunPropagatesBackgroundFailure(t *testing.T) {
	boom := errors.New("listen failed")
	a := app{services: []func(context.Context) error{
		func(context.Context) error { return boom },
	}}
	err := Run(context.Background(), baseOptions(a, func(ctx context.Context, _ coretelegram.RunOptions) error {
		<-ctx.Done()
		return nil
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestRunRequiresHooks(t *testing.T) {
	if err := Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error without LoadConfig")
	}
	opts := baseOptions(app{}, nil)
	opts.Bootstrap = nil
	if err := Run(context.Background(), opts); err == nil {
		t.Fatal("expected error without Bootstrap")
	}
}
