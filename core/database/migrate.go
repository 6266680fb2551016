package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/quotebot/core/logger"
)

const componentMigrate = "db.migrate"

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// MigrateOptions controls a migration run.
type MigrateOptions struct {
	// Embedded is used unless Config.MigrationsDir points at a directory.
	Embedded  fs.FS
	Direction Direction
	// Steps limits the number of applied migrations; 0 applies all.
	Steps int
}

// RunMigrations applies all up migrations from the embedded set or MigrationsDir.
func RunMigrations(cfg Config, embedded fs.FS) error {
	return Migrate(cfg, MigrateOptions{Embedded: embedded, Direction: Up})
}

// migrationSource is a resolved set of *.up.sql files plus the migrator reading them.
type migrationSource struct {
	name  string
	files []string
	m     *migrate.Migrate
}

// Migrate moves the schema in the requested direction and logs a summary.
func Migrate(cfg Config, opts MigrateOptions) error {
	ctx := context.Background()
	dsn := cfg.DSN()
	if err := WaitForPostgres(dsn, 30*time.Second); err != nil {
		logger.Error(ctx, componentMigrate, "db.wait", slog.String("err", err.Error()))
		return err
	}

	src, err := openSource(cfg.MigrationsDir, opts.Embedded, dsn)
	if err != nil {
		logger.Error(ctx, componentMigrate, "init", slog.String("err", err.Error()))
		return fmt.Errorf("init migrations: %w", err)
	}
	defer src.m.Close()
	logger.Debug(ctx, componentMigrate, "resolve", append(
		[]slog.Attr{slog.String("source", src.name)}, fileAttrs(src.files)...)...)

	from, _, _ := src.m.Version()
	start := time.Now()
	err = apply(src.m, opts)
	took := time.Since(start)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error(ctx, componentMigrate, "apply",
			slog.String("direction", string(opts.Direction)),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}

	to, _, _ := src.m.Version()
	applied := appliedBetween(src.files, uint64(from), uint64(to))
	if len(applied) > 0 {
		logger.Debug(ctx, componentMigrate, "apply", fileAttrs(applied)...)
	}
	logger.Info(ctx, componentMigrate, "summary",
		slog.String("direction", string(opts.Direction)),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

func openSource(dir string, embedded fs.FS, dsn string) (*migrationSource, error) {
	if dir = strings.TrimSpace(dir); dir != "" {
		m, err := migrate.New("file://"+dir, dsn)
		if err != nil {
			return nil, err
		}
		return &migrationSource{name: "file://" + dir, files: upFiles(os.DirFS(dir)), m: m}, nil
	}
	if embedded == nil {
		return nil, errors.New("no migration source: embedded set is nil and migrations_dir is empty")
	}
	drv, err := iofs.New(embedded, ".")
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", drv, dsn)
	if err != nil {
		return nil, err
	}
	return &migrationSource{name: "embedded", files: upFiles(embedded), m: m}, nil
}

func apply(m *migrate.Migrate, opts MigrateOptions) error {
	n := opts.Steps
	if opts.Direction == Down {
		n = -n
	}
	switch {
	case n != 0:
		return m.Steps(n)
	case opts.Direction == Down:
		return m.Down()
	}
	return m.Up()
}

func fileAttrs(files []string) []slog.Attr {
	preview, truncated := logger.SummarizeStrings(files, 6)
	return []slog.Attr{
		slog.Int("files_total", len(files)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	}
}

func upFiles(fsys fs.FS) []string {
	matches, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

// appliedBetween returns files whose version lies in (lo, hi], in either order.
func appliedBetween(files []string, a, b uint64) []string {
	lo, hi := min(a, b), max(a, b)
	var out []string
	for _, f := range files {
		prefix, _, _ := strings.Cut(f, "_")
		if v, err := strconv.ParseUint(prefix, 10, 64); err == nil && v > lo && v <= hi {
			out = append(out, f)
		}
	}
	return out
}
