package bot

import (
	"errors"
	"log/slog"

	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/internal/shop"

	tele "gopkg.in/telebot.v4"
)

// userMessage turns an error into the text shown to the user.
func userMessage(err error) string {
	var ve *shop.ValidationError
	switch {
	case errors.As(err, &ve):
		return "❌ " + format.HTML(ve.Error()) + "\nTry again or press Cancel."
	case errors.Is(err, shop.ErrPermission):
		return "🚫 Access denied"
	case errors.Is(err, shop.ErrEmptyCart):
		return "🛒 Your cart is empty"
	case errors.Is(err, shop.ErrNotFound):
		return "😔 Not found. It may have been removed."
	case errors.Is(err, shop.ErrStoreUnavailable):
		return "⚠️ The shop is temporarily unavailable. Please try again later."
	default:
		return "⚠️ Something went wrong. Please try again."
	}
}

// expected reports errors that are part of normal conversation flow.
func expected(err error) bool {
	return errors.Is(err, shop.ErrInvalidInput) ||
		errors.Is(err, shop.ErrPermission) ||
		errors.Is(err, shop.ErrEmptyCart) ||
		errors.Is(err, shop.ErrNotFound)
}

// fail replies to the user and decides what reaches the handler summary:
// expected errors are answered and swallowed, the rest are returned.
// Short refusals on buttons are shown as a toast.
func (h *Handlers) fail(c tele.Context, err error) error {
	msg := userMessage(err)
	ctx := tghelpers.BuildContext(c)
	if expected(err) {
		logger.Info(ctx, logger.CompTG, "handler.rejected",
			append([]slog.Attr{slog.Int64("user_id", tghelpers.SenderID(c))}, logger.ErrAttrs(err)...)...)
	}

	var sendErr error
	switch {
	case c.Callback() != nil && (errors.Is(err, shop.ErrPermission) || errors.Is(err, shop.ErrEmptyCart)):
		sendErr = tghelpers.Toast(c, msg)
	case errors.Is(err, shop.ErrInvalidInput):
		sendErr = tghelpers.SendHTML(c, msg)
	default:
		sendErr = tghelpers.SendHTML(c, msg, h.menuFor(c))
	}
	if sendErr != nil {
		logger.Warn(ctx, logger.CompTG, "handler.reply_failed", logger.ErrAttrs(sendErr)...)
	}
	if expected(err) {
		return nil
	}
	return err
}
