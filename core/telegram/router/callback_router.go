package router

import (
	"log/slog"
	"strings"
	"time"

	tg "github.com/m3rciful/shopbot/core/telegram"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises callback routing.
type CallbackOptions struct {
	// Key maps a callback to a registry key. Returning "" routes to NotFound.
	// Defaults to the whole trimmed payload.
	Key      func(cb *tele.Callback) string
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry.
// The query is answered after the handler unless it already answered with a toast.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	keyOf := opts.Key
	if keyOf == nil {
		keyOf = func(cb *tele.Callback) string { return strings.TrimSpace(cb.Data) }
	}

	handler := func(c tele.Context) error {
		start := time.Now()
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		defer func() {
			if !tghelpers.Responded(c) {
				_ = c.Respond()
			}
		}()

		key := keyOf(cb)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		h, ok := reg.GetCallback(key)
		if key == "" || !ok || h == nil {
			h = opts.NotFound
			if h == nil {
				h = reg.CallbackNotFound()
			}
			extras = append(extras, slog.String("outcome", "not_found"))
			if h == nil {
				logHandlerSummary(c, name, start, "skip", nil, extras...)
				return nil
			}
		}
		return handleWithSummary(c, name, start, func() error { return h(c) }, extras...)
	}

	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
