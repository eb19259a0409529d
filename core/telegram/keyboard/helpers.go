package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes one inline button. Data is sent back verbatim as the callback payload;
// when URL is set the button opens the link instead.
type InlineBtn struct {
	Text string
	Data string
	URL  string
}

// Button returns a callback button.
func Button(text, data string) InlineBtn {
	return InlineBtn{Text: text, Data: data}
}

// Link returns a URL button.
func Link(text, url string) InlineBtn {
	return InlineBtn{Text: text, URL: url}
}

// ReplyButtons builds a resized reply keyboard from rows of labels.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	kb := make([][]tele.ReplyButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.ReplyButton, len(row))
		for i, label := range row {
			r[i] = tele.ReplyButton{Text: label}
		}
		kb = append(kb, r)
	}
	return &tele.ReplyMarkup{ReplyKeyboard: kb, ResizeKeyboard: true}
}

// InlineButtons places each button on its own row.
func InlineButtons(buttons ...InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsNPerRow(buttons, 1)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn. Empty rows are skipped.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = tele.InlineButton{Text: btn.Text, Data: btn.Data, URL: btn.URL}
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// InlineButtonsNPerRow splits a flat list of buttons into rows with up to n buttons per row.
func InlineButtonsNPerRow(buttons []InlineBtn, n int) *tele.ReplyMarkup {
	return InlineButtonsRows(Chunk(buttons, n)...)
}

// Chunk splits buttons into rows of at most n.
func Chunk(buttons []InlineBtn, n int) [][]InlineBtn {
	if n < 1 {
		n = 1
	}
	rows := make([][]InlineBtn, 0, (len(buttons)+n-1)/n)
	for i := 0; i < len(buttons); i += n {
		rows = append(rows, buttons[i:min(i+n, len(buttons))])
	}
	return rows
}
