// Package bootstrap brings up shared infrastructure: logger, database,
// schema migrations and seed data.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	coredatabase "github.com/m3rciful/shopbot/core/database"
	"github.com/m3rciful/shopbot/core/logger"
)

// Options control the bootstrap pipeline. Nil hooks use the core defaults.
type Options struct {
	Config     *coreconfig.Config
	Database   coredatabase.Config
	Migrations fs.FS
	Seeders    []Seeder

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config, fs.FS) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

func (o *Options) defaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

// Run initializes the logger, connects to the database, applies migrations
// when opts.Migrations is set and runs the seeders in order. The pool is
// closed again when a later phase fails.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.defaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init: %w", err)
	}

	var db *sqlx.DB
	err := phase(ctx, "connect", func() (err error) {
		db, err = opts.Connect(ctx, opts.Database)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database: %w", err)
	}

	if opts.Migrations != nil {
		if err := phase(ctx, "migrate", func() error {
			return opts.Migrate(ctx, opts.Database, opts.Migrations)
		}); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations: %w", err)
		}
	}

	if err := phase(ctx, "seed", func() error {
		return RunSeeders(ctx, db, opts.Seeders...)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return &Result{DB: db}, nil
}

func phase(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	attrs := []slog.Attr{
		slog.String("phase", name),
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	}
	logger.LogEvent(ctx, logger.Component(logger.CompApp), level, "bootstrap.phase",
		append(attrs, logger.ErrAttrs(err)...)...)
	return err
}
