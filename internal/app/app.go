// Package app wires configuration, storage, the quote provider and the
// conversation machine into a runnable Telegram bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/quotebot/core/bootstrap"
	corecmd "github.com/m3rciful/quotebot/core/cmd"
	coredatabase "github.com/m3rciful/quotebot/core/database"
	"github.com/m3rciful/quotebot/core/logger"
	"github.com/m3rciful/quotebot/core/metrics"
	tg "github.com/m3rciful/quotebot/core/telegram"
	"github.com/m3rciful/quotebot/core/telegram/netutil"
	"github.com/m3rciful/quotebot/core/telegram/router"
	"github.com/m3rciful/quotebot/core/telegram/state"
	"github.com/m3rciful/quotebot/internal/bot"
	"github.com/m3rciful/quotebot/internal/conversation"
	"github.com/m3rciful/quotebot/internal/provider/forismatic"
	"github.com/m3rciful/quotebot/internal/quotes"
	"github.com/m3rciful/quotebot/internal/storage/postgres"
	"github.com/m3rciful/quotebot/migrations"
)

// App holds the wired bot and the resources it must release on stop.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	redis    *redis.Client
	handlers *bot.Handlers
	registry *tg.Registry
}

var (
	_ corecmd.TelegramApp   = (*App)(nil)
	_ corecmd.BackgroundApp = (*App)(nil)
)

// Bootstrap initializes the logger and database, applies migrations, seeds
// default categories and builds the conversation machine.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Migrate: func(dc coredatabase.Config) error {
			return coredatabase.RunMigrations(dc, migrations.FS)
		},
		Seeders: []bootstrap.Seeder{bootstrap.SeederFunc(seedCategories)},
	})
	if err != nil {
		return nil, err
	}

	sessions, rdb, err := newSessions(ctx, cfg.State)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	a, err := assemble(cfg, postgres.New(res.DB), sessions)
	if err != nil {
		_ = res.DB.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}
	a.db, a.redis = res.DB, rdb
	return a, nil
}

// assemble builds the machine and registers handlers on a fresh registry.
func assemble(cfg *Config, store quotes.Store, sessions state.Manager) (*App, error) {
	timeout := cfg.Quotes.ProviderTimeout()
	provider := forismatic.New(forismatic.Options{
		URL:     cfg.Quotes.ProviderURL,
		Timeout: timeout,
		HTTP:    netutil.NewClient(netutil.ClientOptions{Timeout: timeout}),
	})
	machine := conversation.New(store, provider, sessions, conversation.Options{
		PageSize:    cfg.Quotes.PageSize,
		SearchLimit: cfg.Quotes.SearchLimit,
		Scope:       conversation.Scope(cfg.Quotes.SearchScope),
	})

	handlers := bot.New(machine)
	reg := tg.NewRegistry()
	if err := handlers.Register(reg); err != nil {
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}
	return &App{cfg: cfg, handlers: handlers, registry: reg}, nil
}

func seedCategories(ctx context.Context, db *sqlx.DB) error {
	added, err := postgres.New(db).SeedCategories(ctx, quotes.DefaultCategories)
	if err != nil {
		return err
	}
	logger.Info(ctx, "db.seed", "categories.seeded", slog.Int("added", added))
	return nil
}

func newSessions(ctx context.Context, cfg StateConfig) (state.Manager, *redis.Client, error) {
	if cfg.Backend != StateRedis {
		return state.NewMemoryManager(), nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("app: redis ping %s: %w", cfg.RedisAddr, err)
	}
	logger.Info(ctx, "tg.state", "backend.ready", slog.String("backend", StateRedis), slog.String("addr", cfg.RedisAddr))
	return state.NewRedisManager(client, state.RedisOptions{
		TTL: time.Duration(cfg.TTLSeconds) * time.Second,
	}), client, nil
}

// TelegramRunOptions returns routes, middlewares and the stop hook.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: bot.RejectNonAdmin,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{
		NotFound: a.handlers.UnknownCallback(),
	}))
	routes = append(routes, router.TextRoutes(a.handlers, a.registry, router.TextOptions{
		UnknownText:     a.handlers.UnknownText(),
		UnknownDocument: a.handlers.UnknownDocument(),
	})...)
	routes = append(routes, a.handlers.Routes()...)

	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, bot.RateLimited),
		Routes:      routes,
		OnStop:      a.stop,
	}, nil
}

// Background runs the metrics endpoint when configured.
func (a *App) Background() []func(ctx context.Context) error {
	if a.cfg.Metrics.Listen == "" {
		return nil
	}
	listen := a.cfg.Metrics.Listen
	return []func(ctx context.Context) error{
		func(ctx context.Context) error { return metrics.Serve(ctx, listen) },
	}
}

func (a *App) stop(ctx context.Context, _ tg.Runtime) error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	err := errors.Join(errs...)
	logger.Info(ctx, "app", "resources.closed", slog.String("status", logger.Status(err)))
	return err
}
