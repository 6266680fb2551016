package telegram

import (
	"errors"
	"testing"

	"github.com/m3rciful/quotebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestLookupCommand(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/search", commands.Command{Handler: noop, Description: "search", Aliases: []string{"Поиск текста"}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if key, _, ok := reg.LookupCommand("/search"); !ok || key != "/search" {
		t.Fatalf("slash lookup = %q, %v", key, ok)
	}
	if key, _, ok := reg.LookupCommand("Поиск текста"); !ok || key != "/search" {
		t.Fatalf("alias lookup = %q, %v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("search"); ok {
		t.Fatal("bare word must not resolve to a command")
	}
}

func TestRegisterCommandRejects(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("bad", commands.Command{Handler: noop, Description: "no slash"}); !errors.Is(err, commands.ErrInvalid) {
		t.Fatalf("no slash err = %v", err)
	}
	if err := reg.RegisterCommand("/x", commands.Command{Description: "no handler"}); !errors.Is(err, commands.ErrInvalid) {
		t.Fatalf("no handler err = %v", err)
	}
	_ = reg.RegisterCommand("/a", commands.Command{Handler: noop, Description: "a", Aliases: []string{"A"}})
	if err := reg.RegisterCommand("/a", commands.Command{Handler: noop, Description: "again"}); !errors.Is(err, commands.ErrDuplicate) {
		t.Fatalf("duplicate err = %v", err)
	}
	if err := reg.RegisterCommand("/b", commands.Command{Handler: noop, Description: "b", Aliases: []string{"A"}}); !errors.Is(err, commands.ErrDuplicate) {
		t.Fatalf("duplicate alias err = %v", err)
	}
	if _, ok := reg.Commands()["/b"]; ok {
		t.Fatal("rejected command was stored")
	}
}

func TestListCommandsHidesAdmin(t *testing.T) {
	reg := NewRegistry()
	_ = reg.RegisterCommand("/quote", commands.Command{Handler: noop, Description: "quote"})
	_ = reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "stats", AdminOnly: true})
	_ = reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "debug", Hidden: true})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/quote" {
		t.Fatalf("visible = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 3 || all[0].Text != "/debug" {
		t.Fatalf("all = %+v", all)
	}
}

func TestRegisterCallbackDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("q_new", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("q_new", noop); !errors.Is(err, commands.ErrDuplicate) {
		t.Fatalf("duplicate err = %v", err)
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("empty unique accepted")
	}
	if _, ok := reg.GetCallback("q_new"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "q_new" {
		t.Fatalf("callbacks = %v", got)
	}
}

func TestSetCallbackNotFoundIgnoresNil(t *testing.T) {
	reg := NewRegistry()
	reg.SetCallbackNotFound(nil)
	if reg.CallbackNotFound() == nil {
		t.Fatal("default fallback lost")
	}
}
