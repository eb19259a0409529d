package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/shopbot/internal/shop"
)

const orderColumns = `id, user_id, total_amount, status,
	COALESCE(payment_id, '') AS payment_id, created_at`

// Checkout runs as one transaction: lock the cart rows and share-lock their
// products, price the order at the current prices, obtain the payment
// reference, write the order and its items, then empty the cart.
func (s *Store) Checkout(ctx context.Context, userID int64, pay shop.PayFunc) (order shop.Order, err error) {
	defer func(start time.Time) {
		observe(ctx, "checkout", start, err,
			slog.Int64("user_id", userID),
			slog.Int64("order_id", order.ID),
		)
	}(time.Now())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return shop.Order{}, fmt.Errorf("checkout: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lines []shop.CartLine
	if err = tx.SelectContext(ctx, &lines, cartLinesQuery+` FOR UPDATE OF c FOR SHARE OF p`, userID); err != nil {
		return shop.Order{}, fmt.Errorf("checkout: read cart: %w", err)
	}
	if len(lines) == 0 {
		err = shop.ErrEmptyCart
		return shop.Order{}, err
	}
	total := shop.Cart(lines).Total()

	ref, err := pay(ctx, total)
	if err != nil {
		return shop.Order{}, fmt.Errorf("checkout: %w", err)
	}

	err = tx.GetContext(ctx, &order, `
		INSERT INTO orders (user_id, total_amount, status, payment_id)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING `+orderColumns,
		userID, total, string(shop.StatusPending), ref)
	if err != nil {
		return shop.Order{}, fmt.Errorf("checkout: insert order: %w", err)
	}

	for _, l := range lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4)`,
			order.ID, l.ProductID, l.Quantity, l.Price)
		if err != nil {
			return shop.Order{}, fmt.Errorf("checkout: insert item %d: %w", l.ProductID, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return shop.Order{}, fmt.Errorf("checkout: clear cart: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return shop.Order{}, fmt.Errorf("checkout: commit: %w", err)
	}
	return order, nil
}

// UserOrders lists a user's orders, newest first.
func (s *Store) UserOrders(ctx context.Context, userID int64) (out []shop.Order, err error) {
	defer func(start time.Time) {
		observe(ctx, "user_orders", start, err, slog.Int64("user_id", userID))
	}(time.Now())

	err = s.db.SelectContext(ctx, &out,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("user orders: %w", err)
	}
	return out, nil
}

// GetOrder loads an order by id.
func (s *Store) GetOrder(ctx context.Context, id int64) (o shop.Order, err error) {
	defer func(start time.Time) {
		observe(ctx, "get_order", start, err, slog.Int64("order_id", id))
	}(time.Now())

	if err = s.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id); err != nil {
		return shop.Order{}, notFound(err, "order", id)
	}
	return o, nil
}

// OrderItems returns the lines of an order with frozen prices. Names resolve
// for deactivated products too.
func (s *Store) OrderItems(ctx context.Context, orderID int64) (out []shop.OrderItem, err error) {
	defer func(start time.Time) {
		observe(ctx, "order_items", start, err, slog.Int64("order_id", orderID))
	}(time.Now())

	err = s.db.SelectContext(ctx, &out, `
		SELECT oi.order_id, oi.product_id, p.name, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order items: %w", err)
	}
	return out, nil
}

// RecentOrders lists the latest orders across all users.
func (s *Store) RecentOrders(ctx context.Context, limit int) (out []shop.Order, err error) {
	defer func(start time.Time) { observe(ctx, "recent_orders", start, err) }(time.Now())

	err = s.db.SelectContext(ctx, &out,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	return out, nil
}
