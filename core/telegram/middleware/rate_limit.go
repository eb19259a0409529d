package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/m3rciful/shopbot/core/logger"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	// Interval is the refill period of one token per user.
	Interval time.Duration
	Burst    int
	Exclude  map[string]struct{}
	// IdleTTL drops limiter state of users inactive for longer than this.
	IdleTTL   time.Duration
	OnLimited tele.HandlerFunc
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter tracks one token bucket per user.
type Limiter struct {
	mu        sync.Mutex
	visitors  map[int64]*visitor
	every     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLimiter builds a per-user limiter that refills one token every interval.
func NewLimiter(interval time.Duration, burst int, idleTTL time.Duration) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &Limiter{
		visitors: make(map[int64]*visitor),
		every:    rate.Every(interval),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Allow consumes a token for userID and reports whether the update may proceed.
func (l *Limiter) Allow(userID int64) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.idleTTL {
		for id, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idleTTL {
				delete(l.visitors, id)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[userID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[userID] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Len returns the number of tracked users.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// UpdateKind classifies an update for exclusion matching.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// RateLimitMiddleware drops updates from users exceeding their token bucket.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Interval <= 0 {
		return func(next tele.HandlerFunc) tele.HandlerFunc { return next }
	}
	lim := NewLimiter(opts.Interval, opts.Burst, opts.IdleTTL)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c.Update())]; skip {
				return next(c)
			}
			if lim.Allow(user.ID) {
				return next(c)
			}
			attrs := []slog.Attr{
				slog.String("event", "tg.rate_limit"),
				slog.String("status", "rate_limited"),
				slog.Int64("user_id", user.ID),
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chat_id", chat.ID))
			}
			logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "rate limit", attrs...)
			if opts.OnLimited != nil {
				if err := opts.OnLimited(c); err != nil {
					logger.Debug(tghelpers.BuildContext(c), logger.CompTG, "tg.rate_limit_reply_failed", logger.ErrAttrs(err)...)
				}
			}
			return nil
		}
	}
}
