package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/shopbot/internal/shop"
)

// cartLinesQuery joins the cart with active products. Lines of deactivated
// products stay in the table and are removed with the rest at checkout.
const cartLinesQuery = `
	SELECT c.product_id, p.name, p.price, COALESCE(p.image_path, '') AS image_path, c.quantity
	FROM cart_items c
	JOIN products p ON p.id = c.product_id
	WHERE c.user_id = $1 AND p.is_active
	ORDER BY c.added_at, c.product_id`

// AddToCart inserts an entry or increments an existing one and returns the new quantity.
func (s *Store) AddToCart(ctx context.Context, userID, productID int64, qty int) (n int, err error) {
	defer func(start time.Time) {
		observe(ctx, "add_to_cart", start, err,
			slog.Int64("user_id", userID),
			slog.Int64("product_id", productID),
		)
	}(time.Now())

	err = s.db.GetContext(ctx, &n, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		SELECT $1, id, $3 FROM products WHERE id = $2 AND is_active
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING quantity`,
		userID, productID, qty)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, sql.ErrNoRows):
		return 0, shop.NotFound("product", productID)
	case pqCode(err) == pqForeignKeyViolation:
		return 0, shop.NotFound("user", userID)
	default:
		return 0, fmt.Errorf("add to cart: %w", err)
	}
}

// CartLines returns the user's cart entries for active products, oldest first.
func (s *Store) CartLines(ctx context.Context, userID int64) (out []shop.CartLine, err error) {
	defer func(start time.Time) {
		observe(ctx, "cart_lines", start, err, slog.Int64("user_id", userID))
	}(time.Now())

	if err = s.db.SelectContext(ctx, &out, cartLinesQuery, userID); err != nil {
		return nil, fmt.Errorf("cart lines: %w", err)
	}
	return out, nil
}

// RemoveFromCart deletes one cart entry. Removing a missing entry is not an error.
func (s *Store) RemoveFromCart(ctx context.Context, userID, productID int64) (err error) {
	defer func(start time.Time) {
		observe(ctx, "remove_from_cart", start, err,
			slog.Int64("user_id", userID),
			slog.Int64("product_id", productID),
		)
	}(time.Now())

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	return nil
}

// ClearCart deletes every cart entry of the user.
func (s *Store) ClearCart(ctx context.Context, userID int64) (err error) {
	defer func(start time.Time) {
		observe(ctx, "clear_cart", start, err, slog.Int64("user_id", userID))
	}(time.Now())

	if _, err = s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
