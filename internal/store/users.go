package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/shopbot/internal/shop"
)

const userColumns = `user_id, COALESCE(username, '') AS username,
	COALESCE(first_name, '') AS first_name, COALESCE(last_name, '') AS last_name,
	COALESCE(phone, '') AS phone, COALESCE(address, '') AS address, created_at`

// UpsertUser inserts or refreshes a profile. Display names are last-write-wins;
// phone and address survive writes that do not carry them.
func (s *Store) UpsertUser(ctx context.Context, u shop.User) (err error) {
	defer func(start time.Time) {
		observe(ctx, "upsert_user", start, err, slog.Int64("user_id", u.ID))
	}(time.Now())

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, first_name, last_name, phone, address)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		ON CONFLICT (user_id) DO UPDATE SET
			username   = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			phone      = COALESCE(EXCLUDED.phone, users.phone),
			address    = COALESCE(EXCLUDED.address, users.address)`,
		u.ID, u.Username, u.FirstName, u.LastName, u.Phone, u.Address)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetUser loads a registered user.
func (s *Store) GetUser(ctx context.Context, id int64) (u shop.User, err error) {
	defer func(start time.Time) {
		observe(ctx, "get_user", start, err, slog.Int64("user_id", id))
	}(time.Now())

	err = s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id)
	if err != nil {
		return shop.User{}, notFound(err, "user", id)
	}
	return u, nil
}

// ListUsers returns the most recently registered users first.
func (s *Store) ListUsers(ctx context.Context, limit int) (out []shop.User, err error) {
	defer func(start time.Time) { observe(ctx, "list_users", start, err) }(time.Now())

	err = s.db.SelectContext(ctx, &out,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, user_id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// UserIDs returns every registered user id.
func (s *Store) UserIDs(ctx context.Context) (out []int64, err error) {
	defer func(start time.Time) {
		observe(ctx, "user_ids", start, err, slog.Int("count", len(out)))
	}(time.Now())

	err = s.db.SelectContext(ctx, &out, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("user ids: %w", err)
	}
	return out, nil
}

// Statistics counts users and orders; revenue sums paid orders only.
func (s *Store) Statistics(ctx context.Context) (st shop.Stats, err error) {
	defer func(start time.Time) { observe(ctx, "statistics", start, err) }(time.Now())

	err = s.db.GetContext(ctx, &st, `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM orders) AS orders,
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = $1) AS revenue`,
		string(shop.StatusPaid))
	if err != nil {
		return shop.Stats{}, fmt.Errorf("statistics: %w", err)
	}
	return st, nil
}
