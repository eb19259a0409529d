package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/shopbot/internal/session"
	"github.com/m3rciful/shopbot/internal/shop"
)

const productColumns = `id, name, description, price, category,
	COALESCE(image_path, '') AS image_path, is_active, created_at`

// fieldSet holds the SET clause per editable field. $1 is the new value.
var fieldSet = map[session.Field]string{
	session.FieldName:        "name = $1",
	session.FieldDescription: "description = $1",
	session.FieldPrice:       "price = $1",
	session.FieldCategory:    "category = $1",
	session.FieldImage:       "image_path = NULLIF($1, '')",
}

// ListProducts returns active products, optionally filtered by category.
func (s *Store) ListProducts(ctx context.Context, category string) (out []shop.Product, err error) {
	defer func(start time.Time) {
		observe(ctx, "list_products", start, err, slog.String("category", category))
	}(time.Now())

	if category == "" {
		err = s.db.SelectContext(ctx, &out,
			`SELECT `+productColumns+` FROM products WHERE is_active ORDER BY category, id`)
	} else {
		err = s.db.SelectContext(ctx, &out,
			`SELECT `+productColumns+` FROM products WHERE is_active AND category = $1 ORDER BY id`, category)
	}
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// Categories returns the distinct categories of active products.
func (s *Store) Categories(ctx context.Context) (out []string, err error) {
	defer func(start time.Time) { observe(ctx, "categories", start, err) }(time.Now())

	err = s.db.SelectContext(ctx, &out,
		`SELECT DISTINCT category FROM products WHERE is_active ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	return out, nil
}

// GetProduct loads a product by id, active or not.
func (s *Store) GetProduct(ctx context.Context, id int64) (p shop.Product, err error) {
	defer func(start time.Time) {
		observe(ctx, "get_product", start, err, slog.Int64("product_id", id))
	}(time.Now())

	err = s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return shop.Product{}, notFound(err, "product", id)
	}
	return p, nil
}

// CreateProduct inserts an active product and returns it with its id.
func (s *Store) CreateProduct(ctx context.Context, d shop.ProductDraft) (p shop.Product, err error) {
	defer func(start time.Time) { observe(ctx, "create_product", start, err) }(time.Now())

	err = s.db.GetContext(ctx, &p, `
		INSERT INTO products (name, description, price, category, image_path)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING `+productColumns,
		d.Name, d.Description, d.Price, d.Category, d.ImagePath)
	if err != nil {
		if pqCode(err) == pqCheckViolation {
			return shop.Product{}, &shop.ValidationError{Field: "price", Reason: "must not be negative"}
		}
		return shop.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// UpdateProductField changes one column of an active product.
func (s *Store) UpdateProductField(ctx context.Context, id int64, upd shop.FieldUpdate) (p shop.Product, err error) {
	defer func(start time.Time) {
		observe(ctx, "update_product", start, err,
			slog.Int64("product_id", id),
			slog.String("field", string(upd.Field)),
		)
	}(time.Now())

	set, ok := fieldSet[upd.Field]
	if !ok {
		return shop.Product{}, &shop.ValidationError{Field: "field", Reason: "unknown field " + string(upd.Field)}
	}
	var value any = upd.Text
	if upd.Field == session.FieldPrice {
		value = upd.Price
	}
	err = s.db.GetContext(ctx, &p,
		`UPDATE products SET `+set+` WHERE id = $2 AND is_active RETURNING `+productColumns,
		value, id)
	if err != nil {
		return shop.Product{}, notFound(err, "product", id)
	}
	return p, nil
}

// DeactivateProduct hides a product from listings. Deactivating twice is not an error.
func (s *Store) DeactivateProduct(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) {
		observe(ctx, "deactivate_product", start, err, slog.Int64("product_id", id))
	}(time.Now())

	res, err := s.db.ExecContext(ctx, `UPDATE products SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if n == 0 {
		return shop.NotFound("product", id)
	}
	return nil
}
