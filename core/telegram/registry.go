package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/quotebot/core/logger"
	"github.com/m3rciful/quotebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry maps slash commands, their text aliases and callback uniques to handlers.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]commands.Command
	aliases   map[string]string
	callbacks map[string]tele.HandlerFunc

	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry returns an empty registry whose unknown callbacks get a short toast.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

// RegisterCommand adds cmd under name together with its aliases.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	if err := cmd.Validate(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.commands[name]; dup {
		return fmt.Errorf("%w: %s", commands.ErrDuplicate, name)
	}
	for _, alias := range cmd.Aliases {
		if owner, dup := r.aliases[alias]; dup {
			return fmt.Errorf("%w: alias %q already used by %s", commands.ErrDuplicate, alias, owner)
		}
	}
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = name
	}
	return nil
}

// ListCommands returns commands sorted by name; listedOnly drops hidden and admin-only ones.
func (r *Registry) ListCommands(listedOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for name, cmd := range r.commands {
		if listedOnly && !cmd.Listed() {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: cmd.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves "/name" or an alias to the command key.
// Text without a leading slash matches aliases only.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if strings.HasPrefix(text, "/") {
		if cmd, ok := r.commands[text]; ok {
			return text, cmd, true
		}
	}
	if name, ok := r.aliases[text]; ok {
		return name, r.commands[name], true
	}
	return "", commands.Command{}, false
}

// Commands returns a copy of the registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// RegisterCallback binds a callback unique to handler.
func (r *Registry) RegisterCallback(unique string, handler tele.HandlerFunc) error {
	if unique == "" || handler == nil {
		return fmt.Errorf("%w: callback %q", commands.ErrInvalid, unique)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.callbacks[unique]; dup {
		return fmt.Errorf("%w: callback %s", commands.ErrDuplicate, unique)
	}
	r.callbacks[unique] = handler
	return nil
}

// GetCallback returns the handler bound to unique.
func (r *Registry) GetCallback(unique string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[unique]
	return h, ok
}

// ListCallbacks returns the registered uniques, sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetCallbackNotFound replaces the handler for unknown callback uniques; nil is ignored.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the handler for unknown callback uniques.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text no command or conversation step accepts.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

// TextFallback returns the text fallback handler, if any.
func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// InitBotCommands publishes the listed commands to the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.Error(context.Background(), "tg.wire", "commands.publish_failed",
			slog.Int("count", len(list)),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(context.Background(), "tg.wire", "commands.published", slog.Int("count", len(list)))
}
