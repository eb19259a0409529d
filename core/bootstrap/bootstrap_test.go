package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	coredatabase "github.com/m3rciful/shopbot/core/database"
)

func testOptions(t *testing.T, mock *sqlx.DB) Options {
	t.Helper()
	return Options{
		Config:     &coreconfig.Config{},
		Migrations: fstest.MapFS{"000001_init.up.sql": {Data: []byte("SELECT 1;")}},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return mock, nil
		},
	}
}

func TestRunPipeline(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var order []string
	opts := testOptions(t, sqlx.NewDb(db, "postgres"))
	opts.Migrate = func(_ context.Context, _ coredatabase.Config, fsys fs.FS) error {
		_, err := fs.Stat(fsys, "000001_init.up.sql")
		order = append(order, "migrate")
		return err
	}
	opts.Seeders = []Seeder{
		SeederFunc{Label: "a", Fn: func(context.Context, *sqlx.DB) (int, error) {
			order = append(order, "seed a")
			return 2, nil
		}},
		nil,
		SeederFunc{Label: "b", Fn: func(context.Context, *sqlx.DB) (int, error) {
			order = append(order, "seed b")
			return 0, nil
		}},
	}

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.NotNil(t, res.DB)
	assert.Equal(t, []string{"migrate", "seed a", "seed b"}, order)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunClosesPoolWhenSeedFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	boom := errors.New("duplicate key")
	opts := testOptions(t, sqlx.NewDb(db, "postgres"))
	opts.Migrate = func(context.Context, coredatabase.Config, fs.FS) error { return nil }
	opts.Seeders = []Seeder{SeederFunc{Label: "demo", Fn: func(context.Context, *sqlx.DB) (int, error) {
		return 0, boom
	}}}

	_, err = Run(context.Background(), opts)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "seed demo")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}
