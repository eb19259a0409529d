package sender

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type scriptedClient struct {
	errs  []error
	calls int
	to    []string
}

func (c *scriptedClient) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	c.calls++
	c.to = append(c.to, to.Recipient())
	if len(c.errs) == 0 {
		return &tele.Message{}, nil
	}
	err := c.errs[0]
	c.errs = c.errs[1:]
	if err != nil {
		return nil, err
	}
	return &tele.Message{}, nil
}

func newTestSender(c Client, retries int) *Sender {
	s := New(c, Options{MaxRetries: retries, RetryBackoff: time.Millisecond})
	s.sleep = func(context.Context, time.Duration) error { return nil }
	return s
}

func TestSendRetriesTransientErrors(t *testing.T) {
	dial := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	client := &scriptedClient{errs: []error{dial, dial, nil}}
	s := newTestSender(client, 3)

	require.NoError(t, s.Send(context.Background(), 42, "broadcast", "hi"))
	assert.Equal(t, 3, client.calls)
	assert.Equal(t, []string{"42", "42", "42"}, client.to)

	sent, failed := s.Stats()
	assert.Equal(t, uint64(1), sent)
	assert.Equal(t, uint64(0), failed)
}

func TestSendDoesNotRetryPermanentErrors(t *testing.T) {
	blocked := &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}
	client := &scriptedClient{errs: []error{blocked}}
	s := newTestSender(client, 3)

	err := s.Send(context.Background(), 7, "broadcast", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, blocked)
	assert.Equal(t, 1, client.calls)

	_, failed := s.Stats()
	assert.Equal(t, uint64(1), failed)
}

func TestSendGivesUpAfterMaxRetries(t *testing.T) {
	dial := &net.OpError{Op: "dial", Err: errors.New("refused")}
	client := &scriptedClient{errs: []error{dial, dial, dial, dial}}
	s := newTestSender(client, 2)

	require.Error(t, s.Send(context.Background(), 1, "broadcast", "hi"))
	assert.Equal(t, 3, client.calls)
}

func TestClassifyAndSanitize(t *testing.T) {
	assert.Equal(t, "blocked", ClassifyError(&tele.Error{Code: 403}))
	assert.Equal(t, "http_5xx", ClassifyError(errors.New("telegram: internal (502)")))
	assert.Equal(t, "timeout", ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, "dial", ClassifyError(&net.OpError{Op: "dial", Err: errors.New("x")}))
	assert.True(t, ShouldRetry(errors.New("telegram: bad gateway (502)")))
	assert.False(t, ShouldRetry(context.Canceled))

	msg := SanitizeError(errors.New(`Post "https://api.telegram.org/bot123:AA-bb_cc/sendMessage": EOF`))
	assert.NotContains(t, msg, "123:AA-bb_cc")
	assert.Contains(t, msg, "bot<redacted>")
}
