package router

import (
	"errors"
	"fmt"
	"testing"

	tg "github.com/m3rciful/quotebot/core/telegram"
	"github.com/m3rciful/quotebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

type textContext struct {
	tele.Context
	text  string
	chat  *tele.Chat
	store map[string]any
}

func newTextContext(text string) *textContext {
	return &textContext{text: text, chat: &tele.Chat{ID: 42}, store: map[string]any{}}
}

func (c *textContext) Text() string        { return c.text }
func (c *textContext) Chat() *tele.Chat    { return c.chat }
func (c *textContext) Sender() *tele.User  { return &tele.User{ID: 42} }
func (c *textContext) Update() tele.Update { return tele.Update{ID: 1, Message: &tele.Message{Text: c.text}} }
func (c *textContext) Get(k string) any    { return c.store[k] }
func (c *textContext) Set(k string, v any) { c.store[k] = v }

type fakeFSM struct {
	active  bool
	handled int
}

func (f *fakeFSM) InProgress(tele.Context) bool { return f.active }
func (f *fakeFSM) ManagerHandler(tele.Context) error {
	f.handled++
	return nil
}

func textHandler(t *testing.T, fsm FSM, reg *tg.Registry, opts TextOptions) tele.HandlerFunc {
	t.Helper()
	for _, r := range TextRoutes(fsm, reg, opts) {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("no OnText route")
	return nil
}

func TestTextRoutesMenuLabelBeatsPendingStep(t *testing.T) {
	var menu, stats int
	reg := tg.NewRegistry()
	_ = reg.RegisterCommand("/quote", commands.Command{
		Handler:     func(tele.Context) error { menu++; return nil },
		Description: "quote",
		Aliases:     []string{"Получить цитату"},
	})
	_ = reg.RegisterCommand("/stats", commands.Command{
		Handler:     func(tele.Context) error { stats++; return nil },
		Description: "stats",
		AdminOnly:   true,
		Aliases:     []string{"Статистика"},
	})
	fsm := &fakeFSM{active: true}
	h := textHandler(t, fsm, reg, TextOptions{})

	if err := h(newTextContext("Получить цитату")); err != nil {
		t.Fatalf("menu: %v", err)
	}
	if err := h(newTextContext("какой-то текст")); err != nil {
		t.Fatalf("text: %v", err)
	}
	if err := h(newTextContext("Статистика")); err != nil {
		t.Fatalf("admin alias: %v", err)
	}
	if menu != 1 || fsm.handled != 2 || stats != 0 {
		t.Fatalf("menu=%d fsm=%d stats=%d", menu, fsm.handled, stats)
	}
}

func TestTextRoutesFallbacks(t *testing.T) {
	var unknown, fallback int
	reg := tg.NewRegistry()
	h := textHandler(t, &fakeFSM{}, reg, TextOptions{
		UnknownText: func(tele.Context) error { unknown++; return nil },
	})
	_ = h(newTextContext("привет"))
	if unknown != 1 {
		t.Fatalf("unknown = %d", unknown)
	}

	reg.SetTextFallback(func(tele.Context) error { fallback++; return nil })
	_ = h(newTextContext("привет"))
	if fallback != 1 || unknown != 1 {
		t.Fatalf("fallback=%d unknown=%d", fallback, unknown)
	}

	silent := textHandler(t, nil, nil, TextOptions{})
	if err := silent(newTextContext("x")); err != nil {
		t.Fatalf("silent: %v", err)
	}
}

func TestHandlerName(t *testing.T) {
	cases := map[string]string{
		"/Quote":          "quote",
		" Мои  цитаты ":   "мои_цитаты",
		"":                "unknown",
		"/save@quote_bot": "save@quote_bot",
	}
	for in, want := range cases {
		if got := handlerName(in); got != want {
			t.Errorf("handlerName(%q) = %q, want %q", in, got, want)
		}
	}
}

type codedError struct{}

func (codedError) Error() string { return "store failed" }
func (codedError) Code() string  { return "store unavailable" }

type plainError struct{}

func (*plainError) Error() string { return "plain" }

func TestErrorCode(t *testing.T) {
	if got := errorCode(fmt.Errorf("wrap: %w", codedError{})); got != "STORE_UNAVAILABLE" {
		t.Fatalf("coded = %q", got)
	}
	if got := errorCode(&plainError{}); got != "PLAINERROR" {
		t.Fatalf("plain = %q", got)
	}
	if got := errorCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("errors.New = %q", got)
	}
}

func TestCommandRoutesSorted(t *testing.T) {
	reg := tg.NewRegistry()
	noop := func(tele.Context) error { return nil }
	_ = reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"})
	_ = reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "cancel"})

	routes := CommandRoutes(reg, CommandRouteOptions{})
	if len(routes) != 2 || routes[0].Endpoint != "/cancel" || routes[1].Endpoint != "/start" {
		t.Fatalf("routes = %+v", routes)
	}
	if CommandRoutes(nil, CommandRouteOptions{}) != nil {
		t.Fatal("nil registry must yield no routes")
	}
}
