package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/internal/session"
)

// Outcome is the result kind of HandleText.
type Outcome int

const (
	// Unrecognized means no session was pending; the caller handles the text.
	Unrecognized Outcome = iota
	Cancelled
	ProductCreated
	ProductUpdated
	BroadcastDone
)

func (o Outcome) String() string {
	switch o {
	case Cancelled:
		return "cancelled"
	case ProductCreated:
		return "product_created"
	case ProductUpdated:
		return "product_updated"
	case BroadcastDone:
		return "broadcast_done"
	default:
		return "unrecognized"
	}
}

// TextResult describes how a free-text message was resolved.
type TextResult struct {
	Outcome  Outcome
	Previous session.State
	Product  *Product
	Report   *BroadcastReport
}

// HandleText resolves free text against the user's pending session.
// Validation errors keep the session; any other error resets it to idle.
func (s *Service) HandleText(ctx context.Context, userID int64, text string) (TextResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	st := s.sessions.Get(userID)
	res := TextResult{Previous: st}
	if !st.Pending() {
		return res, nil
	}
	if s.isCancel(text) {
		s.sessions.Clear(userID)
		logger.Info(ctx, logger.CompSession, "session.cancelled",
			slog.Int64("user_id", userID),
			slog.String("state", st.Kind.String()),
		)
		res.Outcome = Cancelled
		return res, nil
	}
	if err := s.requireAdmin(ctx, userID, st.Kind.String()); err != nil {
		s.reset(ctx, userID, err)
		return res, err
	}

	var err error
	switch st.Kind {
	case session.AwaitingProductFields:
		res.Outcome = ProductCreated
		res.Product, err = s.createProduct(ctx, text)
	case session.AwaitingFieldEdit:
		res.Outcome = ProductUpdated
		res.Product, err = s.updateField(ctx, st, text)
	case session.AwaitingBroadcastText:
		res.Outcome = BroadcastDone
		res.Report, err = s.broadcast(ctx, userID, text)
	default:
		err = fmt.Errorf("unexpected session state %s", st)
	}
	if err != nil {
		res.Outcome = Unrecognized
		if errors.Is(err, ErrInvalidInput) {
			logger.Debug(ctx, logger.CompSession, "session.invalid_input",
				slog.Int64("user_id", userID),
				slog.String("state", st.Kind.String()),
			)
			return res, err
		}
		s.reset(ctx, userID, err)
		return res, err
	}
	s.sessions.Clear(userID)
	logger.Info(ctx, logger.CompSession, "session.resolved",
		slog.Int64("user_id", userID),
		slog.String("state", st.Kind.String()),
		slog.String("outcome", res.Outcome.String()),
	)
	return res, nil
}

func (s *Service) createProduct(ctx context.Context, text string) (*Product, error) {
	draft, err := ParseProductInput(text)
	if err != nil {
		return nil, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	p, err := s.store.CreateProduct(sctx, draft)
	if err != nil {
		return nil, storeErr("create product", err)
	}
	logger.Info(ctx, logger.CompCatalog, "product.created",
		slog.Int64("product_id", p.ID),
		slog.String("category", p.Category),
		slog.Int64("price", p.Price),
	)
	return &p, nil
}

func (s *Service) updateField(ctx context.Context, st session.State, text string) (*Product, error) {
	upd, err := ParseFieldValue(st.Field, text)
	if err != nil {
		return nil, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	p, err := s.store.UpdateProductField(sctx, st.ProductID, upd)
	if err != nil {
		return nil, storeErr("update product", err)
	}
	logger.Info(ctx, logger.CompCatalog, "product.updated",
		slog.Int64("product_id", p.ID),
		slog.String("field", string(st.Field)),
	)
	return &p, nil
}
