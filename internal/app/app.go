package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/shopbot/core/bootstrap"
	"github.com/m3rciful/shopbot/core/logger"
	tg "github.com/m3rciful/shopbot/core/telegram"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/shopbot/core/telegram/sender"
	"github.com/m3rciful/shopbot/internal/bot"
	"github.com/m3rciful/shopbot/internal/payment"
	"github.com/m3rciful/shopbot/internal/session"
	"github.com/m3rciful/shopbot/internal/shop"
	"github.com/m3rciful/shopbot/internal/store"
	"github.com/m3rciful/shopbot/migrations"

	tele "gopkg.in/telebot.v4"
)

const janitorInterval = time.Minute

// App owns the infrastructure of a running storefront.
type App struct {
	cfg       *Config
	db        *sqlx.DB
	sessions  *session.MemoryStore
	messenger *bot.Messenger
	service   *shop.Service
	handlers  *bot.Handlers
	registry  *tg.Registry

	stopJanitor context.CancelFunc
	janitorDone chan struct{}
	closeOnce   sync.Once
}

// Bootstrap initializes logging, the database and the service graph.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	var seeders []bootstrap.Seeder
	if cfg.Shop.SeedDemoCatalog {
		seeders = append(seeders, store.DemoSeeder())
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Migrations: migrations.FS,
		Seeders:    seeders,
	})
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return a, nil
}

func newApp(cfg *Config, db *sqlx.DB) (*App, error) {
	a := &App{
		cfg:       cfg,
		db:        db,
		sessions:  session.NewMemoryStore(cfg.Shop.SessionTTL()),
		messenger: &bot.Messenger{},
		registry:  tg.NewRegistry(),
	}
	a.service = shop.New(
		store.New(db),
		&payment.Stub{BaseURL: cfg.Shop.PaymentURL},
		a.messenger,
		shop.NewAdminSet(cfg.Telegram.AdminIDs...),
		a.sessions,
		shop.Options{
			StoreTimeout:         time.Duration(cfg.Shop.StoreTimeoutSeconds) * time.Second,
			BroadcastConcurrency: cfg.Shop.BroadcastConcurrency,
			BroadcastTimeout:     time.Duration(cfg.Shop.BroadcastTimeoutSeconds) * time.Second,
			CancelTexts:          []string{cfg.Shop.CancelText, "/cancel"},
			ShopName:             cfg.Shop.Name,
		},
	)
	a.handlers = bot.New(a.service, bot.Config{
		ShopName:    cfg.Shop.Name,
		Currency:    cfg.Shop.Currency,
		CancelText:  cfg.Shop.CancelText,
		SupportText: cfg.Shop.SupportText,
	})
	if err := a.handlers.Register(a.registry); err != nil {
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}

	jctx, cancel := context.WithCancel(context.Background())
	a.stopJanitor = cancel
	a.janitorDone = make(chan struct{})
	go func() {
		defer close(a.janitorDone)
		a.sessions.RunJanitor(jctx, janitorInterval)
	}()

	logger.Info(context.Background(), logger.CompApp, "app.wired",
		slog.Int("admins", len(cfg.Telegram.AdminIDs)),
		slog.Duration("session_ttl", cfg.Shop.SessionTTL()),
		slog.Int("broadcast_concurrency", cfg.Shop.BroadcastConcurrency),
	)
	return a, nil
}

// TelegramRunOptions assembles middlewares, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:   &a.cfg.Config,
		Registry: a.registry,
		SenderOptions: tgsender.Options{
			MaxRetries:   3,
			RetryBackoff: 500 * time.Millisecond,
			MaxDuration:  time.Duration(a.cfg.Shop.BroadcastTimeoutSeconds) * time.Second,
		},
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, tg.MiddlewareOptions{
			OnLimited: func(c tele.Context) error {
				return tghelpers.Toast(c, "⏳ Too many requests, slow down a little")
			},
			OnPanic: func(c tele.Context) error {
				return tghelpers.SendText(c, "⚠️ Something went wrong. Please try again.")
			},
		}),
		Routes: a.handlers.Routes(a.registry),
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.messenger.Bind(rt.Sender)
			logger.Info(ctx, logger.CompApp, "app.started",
				slog.Int("commands", len(rt.Registry.Commands())),
				slog.Int("callbacks", len(rt.Registry.ListCallbacks())),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			sent, failed := rt.Sender.Stats()
			logger.Info(ctx, logger.CompApp, "app.stopping",
				slog.Int("pending_sessions", a.sessions.Len()),
				slog.Uint64("sender_sent", sent),
				slog.Uint64("sender_failed", failed),
			)
			return nil
		},
	}, nil
}

// Close stops the session janitor and closes the database pool.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		if a.stopJanitor != nil {
			a.stopJanitor()
			<-a.janitorDone
		}
		if a.db != nil {
			err = a.db.Close()
		}
	})
	if err != nil {
		return fmt.Errorf("app: close db: %w", err)
	}
	return nil
}
