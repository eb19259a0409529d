package format

import (
	"html"
	"strconv"
	"strings"
)

// Money renders an integer amount grouped by thousands and the currency label, e.g. "12 500 ₽".
func Money(amount int64, currency string) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if currency != "" {
		b.WriteByte(' ')
		b.WriteString(currency)
	}
	return b.String()
}

// HTML escapes user supplied text for messages sent with the HTML parse mode.
func HTML(s string) string {
	return html.EscapeString(s)
}
