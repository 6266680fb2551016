package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/quotebot/core/logger"
)

const (
	connectTimeout = 5 * time.Second
	pingInterval   = 2 * time.Second
)

// Connect opens a pooled connection and pings it before returning.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	host, port, name := cfg.Target()
	target := []slog.Attr{
		slog.String("host", host),
		slog.String("port", port),
		slog.String("db", name),
	}

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	target = append(target, slog.Duration("duration", time.Since(start)))
	if err != nil {
		logger.Error(ctx, "db", "db.connect", append(target, slog.String("err", err.Error()))...)
		return nil, fmt.Errorf("db connect %s/%s: %w", host, name, err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.Info(ctx, "db", "db.connect", append(target, slog.Int("pool_open", cfg.MaxConnections))...)
	return db, nil
}

// WaitForPostgres pings dsn every couple of seconds until it answers or timeout elapses.
func WaitForPostgres(dsn string, timeout time.Duration) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	tick := time.NewTicker(pingInterval)
	defer tick.Stop()

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, pingInterval)
		err = db.PingContext(pingCtx)
		pingCancel()
		if err == nil {
			return nil
		}
		logger.Debug(ctx, "db", "db.wait", slog.Int("attempts", attempt), slog.String("err", err.Error()))
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %s: %w", timeout, err)
		case <-tick.C:
		}
	}
}
