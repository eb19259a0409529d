package shop

import (
	"strconv"
	"strings"

	"github.com/m3rciful/shopbot/internal/session"
)

// FieldSeparator splits the values of a new-product message.
const FieldSeparator = "|"

// ClearImage is the edit value that removes a product image.
const ClearImage = "-"

// ParseProductInput parses "name|description|price|category[|image]".
// Values may not contain the separator: extra parts are rejected instead of guessed.
func ParseProductInput(text string) (ProductDraft, error) {
	parts := strings.Split(text, FieldSeparator)
	if len(parts) < 4 {
		return ProductDraft{}, invalid("", "expected name|description|price|category[|image]")
	}
	if len(parts) > 5 {
		return ProductDraft{}, invalid("", "too many fields, '|' is not allowed inside values")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	d := ProductDraft{
		Name:        parts[0],
		Description: parts[1],
		Category:    parts[3],
	}
	if d.Name == "" {
		return ProductDraft{}, invalid("name", "must not be empty")
	}
	if d.Category == "" {
		return ProductDraft{}, invalid("category", "must not be empty")
	}
	price, err := parsePrice(parts[2])
	if err != nil {
		return ProductDraft{}, err
	}
	d.Price = price
	if len(parts) == 5 {
		d.ImagePath = parts[4]
	}
	return d, nil
}

// ParseFieldValue validates a single-field edit value.
func ParseFieldValue(field session.Field, text string) (FieldUpdate, error) {
	text = strings.TrimSpace(text)
	upd := FieldUpdate{Field: field}
	switch field {
	case session.FieldName, session.FieldCategory:
		if text == "" {
			return FieldUpdate{}, invalid(string(field), "must not be empty")
		}
		upd.Text = text
	case session.FieldDescription:
		upd.Text = text
	case session.FieldPrice:
		price, err := parsePrice(text)
		if err != nil {
			return FieldUpdate{}, err
		}
		upd.Price = price
	case session.FieldImage:
		if text != ClearImage {
			upd.Text = text
		}
	default:
		return FieldUpdate{}, invalid("field", "unknown field "+strconv.Quote(string(field)))
	}
	return upd, nil
}

// parsePrice accepts a non-negative integer amount in minor units.
func parsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalid("price", "must not be empty")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, invalid("price", strconv.Quote(s)+" is not a whole number")
	}
	if v < 0 {
		return 0, invalid("price", "must not be negative")
	}
	return v, nil
}
