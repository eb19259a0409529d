// Package store is the PostgreSQL implementation of the shop repositories.
package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/internal/shop"
)

const (
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// Store implements shop.Store on top of sqlx.
type Store struct {
	db *sqlx.DB
}

var _ shop.Store = (*Store)(nil)

// New wraps an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// observe logs a store call at debug level.
func observe(ctx context.Context, op string, start time.Time, err error, attrs ...slog.Attr) {
	if !logger.DebugEnabled() && err == nil {
		return
	}
	attrs = append(attrs,
		slog.String("op", op),
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	)
	level := slog.LevelDebug
	if err != nil && !errors.Is(err, shop.ErrNotFound) && !errors.Is(err, shop.ErrEmptyCart) {
		level = slog.LevelWarn
		attrs = append(attrs, logger.ErrAttrs(err)...)
	}
	logger.LogEvent(ctx, logger.DB, level, "db.query", attrs...)
}

// notFound maps sql.ErrNoRows to a NotFoundError.
func notFound(err error, entity string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return shop.NotFound(entity, id)
	}
	return err
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
