package helpers

import (
	"log/slog"

	"github.com/m3rciful/shopbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Send(text, &tele.SendOptions{ReplyMarkup: first(markup)})
}

// SendHTML sends a message with HTML parse mode and optional reply markup.
func SendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Send(text, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: first(markup)})
}

// EditOrSendHTML edits the message behind a callback or sends a new one.
func EditOrSendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.EditOrSend(text, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: first(markup)})
}

// SendPhotoOrText sends a photo with an HTML caption. When the photo cannot be
// delivered the caption is sent as a plain message instead.
func SendPhotoOrText(c tele.Context, file tele.File, caption string, markup ...*tele.ReplyMarkup) error {
	rm := first(markup)
	photo := &tele.Photo{File: file, Caption: caption}
	err := c.Send(photo, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: rm})
	if err == nil {
		return nil
	}
	logger.Warn(BuildContext(c), logger.CompTG, "photo.fallback",
		slog.String("err", err.Error()),
	)
	return SendHTML(c, caption, rm)
}

const respondedKey = "cb_responded"

// Toast answers a callback query with a short notification. Outside of a
// callback the text is sent as a message.
func Toast(c tele.Context, text string) error {
	if c.Callback() == nil {
		return SendText(c, text)
	}
	c.Set(respondedKey, true)
	return c.Respond(&tele.CallbackResponse{Text: text})
}

// Responded reports whether the callback query was already answered by Toast.
func Responded(c tele.Context) bool {
	done, _ := c.Get(respondedKey).(bool)
	return done
}

func first(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}
