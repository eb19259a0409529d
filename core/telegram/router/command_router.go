package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	IsAdmin       func(userID int64) bool
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares slash-command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  wrapCommand(name, def, opts),
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("count", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

// wrapCommand applies the admin gate and the summary line to a registered command.
func wrapCommand(name string, def tg.Command, opts CommandRouteOptions) tele.HandlerFunc {
	h := def.Handler
	if def.AdminOnly {
		h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
			IsAdmin:  opts.IsAdmin,
			OnReject: opts.OnAdminReject,
		})(h)
	}
	handlerName := normalizeHandlerName(name)
	inner := h
	h = func(c tele.Context) error {
		return handleWithSummary(c, handlerName, time.Now(), func() error { return inner(c) })
	}
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}
