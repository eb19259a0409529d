// Package payment provides the payment collaborator used at checkout.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/internal/shop"
)

// DefaultBaseURL is used when the stub has no base URL configured.
const DefaultBaseURL = "https://example.com/payment"

// Stub issues payment references without talking to a gateway. The redirect
// URL carries the reference so a real provider can be dropped in later.
type Stub struct {
	BaseURL string
	// NewID generates the reference suffix; defaults to a random UUID.
	NewID func() string
}

var _ shop.Payments = (*Stub)(nil)

// Create returns a fresh reference and its redirect URL.
func (s *Stub) Create(ctx context.Context, amount int64, description string, userID int64) (shop.Payment, error) {
	if err := ctx.Err(); err != nil {
		return shop.Payment{}, err
	}
	if amount < 0 {
		return shop.Payment{}, fmt.Errorf("payment: negative amount %d", amount)
	}
	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	ref := "pay_" + strings.ReplaceAll(newID(), "-", "")

	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return shop.Payment{}, fmt.Errorf("payment: base url: %w", err)
	}
	q := u.Query()
	q.Set("ref", ref)
	q.Set("amount", fmt.Sprint(amount))
	u.RawQuery = q.Encode()

	logger.Info(ctx, logger.CompOrders, "payment.created",
		slog.Int64("user_id", userID),
		slog.String("payment_id", ref),
		slog.Int64("amount", amount),
		slog.String("description", logger.SanitizeLimit(description, 120)),
	)
	return shop.Payment{Reference: ref, RedirectURL: u.String()}, nil
}
