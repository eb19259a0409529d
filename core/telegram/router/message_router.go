package router

import (
	"time"

	tg "github.com/m3rciful/shopbot/core/telegram"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is the conversational state machine consulted before any text route.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	CommandOptions CommandRouteOptions
	UnknownText    tele.HandlerFunc
}

// TextRoutes routes plain text: a pending session first, then command aliases
// (reply keyboard labels), then the registry fallback.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()

		if fsm != nil && fsm.InProgress(tghelpers.SenderID(c)) {
			return handleWithSummary(c, "fsm", start, func() error {
				return fsm.ManagerHandler(c)
			})
		}

		if reg != nil {
			if name, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				// wrapCommand logs its own summary and applies the admin gate.
				return wrapCommand(name, cmd, opts.CommandOptions)(c)
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	return []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}}
}
