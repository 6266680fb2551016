package router

import (
	"context"
	"log/slog"
	"sort"

	"github.com/m3rciful/quotebot/core/logger"
	tg "github.com/m3rciful/quotebot/core/telegram"
	"github.com/m3rciful/quotebot/core/telegram/commands"
	"github.com/m3rciful/quotebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configure the admin guard of admin-only commands.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered slash command, sorted by name.
// Each handler logs a summary; admin-only ones sit behind AdminOnlyMiddleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	guard := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	routes := make([]tg.Route, 0, len(names))
	for _, name := range names {
		h := summarized(name, cmds[name])
		if cmds[name].AdminOnly {
			h = guard(h)
		}
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  middleware.LoggerMiddleware(h),
		})
	}

	logger.Info(context.Background(), "tg.wire", "routes.commands",
		slog.Int("count", len(routes)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

func summarized(name string, cmd commands.Command) tele.HandlerFunc {
	return middleware.RecoverMiddleware(func(c tele.Context) error {
		return newSummary(handlerName(name)).run(c, func() error { return cmd.Handler(c) })
	})
}
