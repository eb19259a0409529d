package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/shopbot/core/logger"
)

// Seeder loads reference data after migrations.
type Seeder interface {
	Name() string
	Seed(ctx context.Context, db *sqlx.DB) (int, error)
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc struct {
	Label string
	Fn    func(ctx context.Context, db *sqlx.DB) (int, error)
}

// Name returns the seeder label used in logs.
func (f SeederFunc) Name() string { return f.Label }

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, db *sqlx.DB) (int, error) {
	return f.Fn(ctx, db)
}

// RunSeeders executes seeders in order and stops at the first failure.
func RunSeeders(ctx context.Context, db *sqlx.DB, seeders ...Seeder) error {
	for _, s := range seeders {
		if s == nil {
			continue
		}
		n, err := s.Seed(ctx, db)
		if err != nil {
			logger.SEED.Error("seed failed",
				slog.String("event", "db.seed"),
				slog.String("op", s.Name()),
				slog.String("err", err.Error()),
			)
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		logger.SEED.Info("seed done",
			slog.String("event", "db.seed"),
			slog.String("op", s.Name()),
			slog.Int("count", n),
		)
	}
	return nil
}
