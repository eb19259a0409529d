package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// PanicError is returned by a handler that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("handler panic: %v", e.Value) }
func (e *PanicError) Code() string  { return "PANIC" }

// RecoverMiddleware is Recover without a user reply.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return Recover(nil)(next)
}

// Recover turns a handler panic into a *PanicError and lets onPanic reply
// to the user. The stack goes to the log, never to the chat.
func Recover(onPanic tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				perr := &PanicError{Value: r, Stack: debug.Stack()}
				logger.Error(tghelpers.BuildContext(c), logger.CompTG, "tg.panic",
					slog.String("update", UpdateKind(c.Update())),
					slog.Int64("user_id", tghelpers.SenderID(c)),
					slog.Any("err", r),
					slog.String("stack", string(perr.Stack)),
				)
				err = perr
				if onPanic != nil {
					if rerr := onPanic(c); rerr != nil {
						logger.Warn(tghelpers.BuildContext(c), logger.CompTG, "tg.panic_reply_failed", logger.ErrAttrs(rerr)...)
					}
				}
			}()
			return next(c)
		}
	}
}
