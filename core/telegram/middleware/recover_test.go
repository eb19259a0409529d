package middleware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type panicCtx struct {
	tele.Context
	store map[string]any
}

func (c *panicCtx) Sender() *tele.User  { return &tele.User{ID: 7} }
func (c *panicCtx) Chat() *tele.Chat    { return &tele.Chat{ID: 7} }
func (c *panicCtx) Update() tele.Update { return tele.Update{ID: 1, Message: &tele.Message{}} }
func (c *panicCtx) Get(k string) any    { return c.store[k] }
func (c *panicCtx) Set(k string, v any) { c.store[k] = v }

func TestRecoverConvertsPanic(t *testing.T) {
	replied := false
	h := Recover(func(tele.Context) error {
		replied = true
		return nil
	})(func(tele.Context) error { panic("nil map") })

	err := h(&panicCtx{store: map[string]any{}})
	var perr *PanicError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "nil map", perr.Value)
	assert.Equal(t, "PANIC", perr.Code())
	assert.NotEmpty(t, perr.Stack)
	assert.True(t, replied)
}

func TestRecoverPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	h := RecoverMiddleware(func(tele.Context) error { return boom })
	assert.ErrorIs(t, h(&panicCtx{store: map[string]any{}}), boom)
}
