package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "0 ₽", Money(0, "₽"))
	assert.Equal(t, "999", Money(999, ""))
	assert.Equal(t, "1 999 ₽", Money(1999, "₽"))
	assert.Equal(t, "12 500 000 ₽", Money(12500000, "₽"))
	assert.Equal(t, "-1 000 ₽", Money(-1000, "₽"))
}

func TestHTML(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;", HTML("<b>"))
	assert.Equal(t, "Tom &amp; Jerry", HTML("Tom & Jerry"))
}
