// Package commands describes slash commands registered with the bot.
package commands

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrInvalid reports a command without handler, description or leading slash.
	ErrInvalid = errors.New("invalid command")
	// ErrDuplicate reports a command or alias registered twice.
	ErrDuplicate = errors.New("duplicate command")
)

// Command is a slash command with its handler. Aliases are plain texts,
// usually reply keyboard labels, that trigger the same handler.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Validate checks cmd registered under name.
func (cmd Command) Validate(name string) error {
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return fmt.Errorf("%w: %q needs a leading slash", ErrInvalid, name)
	case cmd.Handler == nil:
		return fmt.Errorf("%w: %s has no handler", ErrInvalid, name)
	case strings.TrimSpace(cmd.Description) == "":
		return fmt.Errorf("%w: %s has no description", ErrInvalid, name)
	}
	return nil
}

// Listed reports whether the command belongs in the public command menu.
func (cmd Command) Listed() bool {
	return !cmd.Hidden && !cmd.AdminOnly
}
