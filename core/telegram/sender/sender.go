package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/m3rciful/shopbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Client is the subset of *tele.Bot used for outbound messages.
type Client interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Options controls retry behaviour of the sender.
type Options struct {
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single message.
	MaxDuration time.Duration
}

// Sender delivers messages synchronously, retrying transient failures.
type Sender struct {
	client Client
	opts   Options
	sleep  func(ctx context.Context, d time.Duration) error

	sent atomic.Uint64
	errs atomic.Uint64
}

// New returns a Sender with defaults applied to zero options.
func New(client Client, opts Options) *Sender {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}
	return &Sender{client: client, opts: opts, sleep: sleepCtx}
}

// Send delivers what to the chat, returning the last error when every attempt failed.
func (s *Sender) Send(ctx context.Context, chatID int64, action string, what interface{}, opts ...interface{}) error {
	if s == nil || s.client == nil {
		return errors.New("telegram sender: no client")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := s.opts.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		_, err := s.client.Send(tele.ChatID(chatID), what, opts...)
		if err == nil {
			s.sent.Add(1)
			attrs := []slog.Attr{slog.String("action", action), slog.Int64("chat_id", chatID), slog.Duration("duration", logger.Took(start))}
			if attempt > 1 {
				attrs = append(attrs, slog.Int("attempts", attempt))
			}
			logger.Debug(ctx, logger.CompTGSender, "send.success", attrs...)
			return nil
		}
		lastErr = err
		if !ShouldRetry(err) || attempt == attempts {
			break
		}
		delay := s.backoff(err, attempt)
		logger.Debug(ctx, logger.CompTGSender, "send.retry.backoff",
			slog.String("action", action),
			slog.Int64("chat_id", chatID),
			slog.Int("attempts", attempt),
			slog.Duration("backoff", delay),
		)
		if err := s.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	s.errs.Add(1)
	logger.Warn(ctx, logger.CompTGSender, "send.fail",
		slog.String("action", action),
		slog.Int64("chat_id", chatID),
		slog.String("err", SanitizeError(lastErr)),
		slog.String("cause", ClassifyError(lastErr)),
		slog.Duration("duration", logger.Took(start)),
	)
	return fmt.Errorf("telegram send %s: %w", action, lastErr)
}

// Stats returns delivered and failed message counts.
func (s *Sender) Stats() (sent, failed uint64) {
	return s.sent.Load(), s.errs.Load()
}

func (s *Sender) backoff(err error, attempt int) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return s.opts.RetryBackoff * time.Duration(attempt)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
