package shop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/internal/session"
)

func TestParseProductInput(t *testing.T) {
	d, err := ParseProductInput("Figure|A cool figure|1999|Figures")
	require.NoError(t, err)
	assert.Equal(t, ProductDraft{Name: "Figure", Description: "A cool figure", Price: 1999, Category: "Figures"}, d)

	d, err = ParseProductInput(" Mug | Big mug | 500 | Kitchen | img/mug.jpg ")
	require.NoError(t, err)
	assert.Equal(t, "Mug", d.Name)
	assert.Equal(t, "img/mug.jpg", d.ImagePath)

	d, err = ParseProductInput("Mug||500|Kitchen|")
	require.NoError(t, err)
	assert.Empty(t, d.Description)
	assert.Empty(t, d.ImagePath)
}

func TestParseProductInputRejects(t *testing.T) {
	cases := map[string]string{
		"too few":      "Figure|A cool figure|1999",
		"too many":     "Fig|ure|A cool figure|1999|Figures|img",
		"price text":   "Figure|A cool figure|abc|Figures",
		"price float":  "Figure|A cool figure|19.99|Figures",
		"negative":     "Figure|A cool figure|-1|Figures",
		"empty name":   " |A cool figure|1999|Figures",
		"empty cat":    "Figure|A cool figure|1999| ",
		"no separator": "just some text",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProductInput(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			var ve *ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestParseFieldValue(t *testing.T) {
	upd, err := ParseFieldValue(session.FieldPrice, " 2500 ")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), upd.Price)

	_, err = ParseFieldValue(session.FieldPrice, "abc")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseFieldValue(session.FieldName, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	upd, err = ParseFieldValue(session.FieldDescription, "")
	require.NoError(t, err)
	assert.Empty(t, upd.Text)

	upd, err = ParseFieldValue(session.FieldImage, ClearImage)
	require.NoError(t, err)
	assert.Empty(t, upd.Text)

	upd, err = ParseFieldValue(session.FieldImage, "img/a.png")
	require.NoError(t, err)
	assert.Equal(t, "img/a.png", upd.Text)

	_, err = ParseFieldValue(session.Field("stock"), "1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
