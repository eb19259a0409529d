package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/shopbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	IsAdmin  func(userID int64) bool
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only admins reach downstream handlers.
// A nil IsAdmin rejects everyone.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user != nil && opts.IsAdmin != nil && opts.IsAdmin(user.ID) {
				return next(c)
			}
			var uid int64
			if user != nil {
				uid = user.ID
			}
			logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "access denied",
				slog.String("event", "tg.access_denied"),
				slog.String("outcome", "rejected"),
				slog.Int64("user_id", uid),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
