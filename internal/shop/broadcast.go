package shop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/shopbot/core/logger"
)

// BroadcastReport tallies a broadcast. Failures holds one DeliveryError per failed recipient.
type BroadcastReport struct {
	Recipients int
	Sent       int
	Failed     int
	Failures   []*DeliveryError
	Took       time.Duration
}

// broadcast delivers text verbatim to every known user. A failing or slow
// recipient is counted and never aborts the others.
func (s *Service) broadcast(ctx context.Context, adminID int64, text string) (*BroadcastReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalid("message", "must not be empty")
	}
	if s.msg == nil {
		return nil, fmt.Errorf("broadcast: no messenger: %w", ErrDelivery)
	}

	sctx, cancel := s.storeCtx(ctx)
	ids, err := s.store.UserIDs(sctx)
	cancel()
	if err != nil {
		return nil, storeErr("user ids", err)
	}

	start := time.Now()
	var (
		sent, failed atomic.Int64
		mu           sync.Mutex
		failures     []*DeliveryError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.BroadcastConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(gctx, s.opts.BroadcastTimeout)
			defer cancel()
			if err := s.msg.Deliver(dctx, id, text); err != nil {
				failed.Add(1)
				mu.Lock()
				failures = append(failures, &DeliveryError{UserID: id, Err: err})
				mu.Unlock()
				logger.Debug(ctx, logger.CompBroadcast, "broadcast.delivery_failed",
					append([]slog.Attr{slog.Int64("user_id", id)}, logger.ErrAttrs(err)...)...)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report := &BroadcastReport{
		Recipients: len(ids),
		Sent:       int(sent.Load()),
		Failed:     int(failed.Load()),
		Failures:   failures,
		Took:       logger.Took(start),
	}
	logger.Info(ctx, logger.CompBroadcast, "broadcast.done",
		slog.Int64("user_id", adminID),
		slog.Int("recipients", report.Recipients),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Took),
	)
	return report, nil
}
