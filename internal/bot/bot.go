// Package bot binds the conversation machine to Telegram: it registers
// commands, menu aliases and callbacks, and renders replies.
package bot

import (
	"context"

	tg "github.com/m3rciful/quotebot/core/telegram"
	"github.com/m3rciful/quotebot/core/telegram/commands"
	"github.com/m3rciful/quotebot/core/telegram/router"
	"github.com/m3rciful/quotebot/core/telegram/ui"
	"github.com/m3rciful/quotebot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// Machine is the part of conversation.Machine the bot drives.
type Machine interface {
	Handle(ctx context.Context, ev conversation.Event) (*conversation.Reply, error)
	InProgress(ctx context.Context, chatID int64) bool
	Search(ctx context.Context, chatID int64, text string) ([]string, error)
}

// Handlers adapts a Machine to telebot handlers.
type Handlers struct {
	machine Machine
}

var (
	_ router.FSM          = (*Handlers)(nil)
	_ ui.FallbackProvider = (*Handlers)(nil)
)

// New returns handlers for machine.
func New(machine Machine) *Handlers {
	return &Handlers{machine: machine}
}

type commandSpec struct {
	name        string
	kind        conversation.CommandKind
	description string
	aliases     []string
	adminOnly   bool
}

var commandSpecs = []commandSpec{
	{name: "/start", kind: conversation.CmdStart, description: "Главное меню"},
	{name: "/help", kind: conversation.CmdHelp, description: "Список команд"},
	{name: "/quote", kind: conversation.CmdGetQuote, description: "Случайная цитата", aliases: []string{conversation.LabelGetQuote}},
	{name: "/save", kind: conversation.CmdSaveQuote, description: "Сохранить цитату", aliases: []string{conversation.LabelSaveQuote}},
	{name: "/mine", kind: conversation.CmdMyQuotes, description: "Мои цитаты", aliases: []string{conversation.LabelMyQuotes}},
	{name: "/category", kind: conversation.CmdShowCategory, description: "Показать категорию", aliases: []string{conversation.LabelShowCategory}},
	{name: "/search", kind: conversation.CmdSearch, description: "Поиск по цитатам", aliases: []string{conversation.LabelSearch}},
	{name: "/mute", kind: conversation.CmdMute, description: "Звук уведомлений: on, off или переключить", aliases: []string{conversation.LabelMute, conversation.LabelUnmute}},
	{name: "/cancel", kind: conversation.CmdCancel, description: "Отменить ввод"},
	{name: "/stats", kind: conversation.CmdStats, description: "Статистика", adminOnly: true},
}

// Register adds every command, alias and callback to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	for _, spec := range commandSpecs {
		err := reg.RegisterCommand(spec.name, commands.Command{
			Handler:     h.command(spec.kind),
			Description: spec.description,
			AdminOnly:   spec.adminOnly,
			Aliases:     spec.aliases,
		})
		if err != nil {
			return err
		}
	}
	for _, kind := range conversation.ActionKinds {
		if err := reg.RegisterCallback(string(kind), h.Callback); err != nil {
			return err
		}
	}
	reg.SetCallbackNotFound(h.UnknownCallback())
	return nil
}

// Routes returns inline query routes; commands, callbacks and text come from the core routers.
func (h *Handlers) Routes() []tg.Route {
	return []tg.Route{{Endpoint: tele.OnQuery, Handler: h.InlineQuery}}
}
