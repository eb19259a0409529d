package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/internal/session"
	"github.com/m3rciful/shopbot/internal/shop"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(sqlx.NewDb(db, "postgres")), mock
}

var (
	productCols = []string{"id", "name", "description", "price", "category", "image_path", "is_active", "created_at"}
	orderCols   = []string{"id", "user_id", "total_amount", "status", "payment_id", "created_at"}
	lineCols    = []string{"product_id", "name", "price", "image_path", "quantity"}
)

func q(s string) string { return regexp.QuoteMeta(s) }

func TestListProductsActiveOnly(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(q("FROM products WHERE is_active AND category = $1")).
		WithArgs("Figures").
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(7, "Figure", "A cool figure", 1999, "Figures", "", true, now))

	got, err := s.ListProducts(context.Background(), "Figures")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1999), got[0].Price)
	assert.Empty(t, got[0].ImagePath)
}

func TestGetProductNotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q("FROM products WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(productCols))

	_, err := s.GetProduct(context.Background(), 9)
	var nf *shop.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "product", nf.Entity)
	assert.Equal(t, int64(9), nf.ID)
}

func TestGetProductResolvesInactive(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q("FROM products WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(3, "Plate", "", 300, "Kitchen", "", false, time.Now()))

	p, err := s.GetProduct(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
}

func TestCreateProduct(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q("INSERT INTO products (name, description, price, category, image_path)")).
		WithArgs("Figure", "A cool figure", int64(1999), "Figures", "").
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(1, "Figure", "A cool figure", 1999, "Figures", "", true, time.Now()))

	p, err := s.CreateProduct(context.Background(), shop.ProductDraft{
		Name: "Figure", Description: "A cool figure", Price: 1999, Category: "Figures",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.True(t, p.IsActive)
}

func TestUpdateProductField(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q("UPDATE products SET price = $1 WHERE id = $2 AND is_active")).
		WithArgs(int64(2500), int64(7)).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(7, "Figure", "", 2500, "Figures", "", true, time.Now()))

	p, err := s.UpdateProductField(context.Background(), 7, shop.FieldUpdate{Field: session.FieldPrice, Price: 2500})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), p.Price)

	mock.ExpectQuery(q("UPDATE products SET image_path = NULLIF($1, '')")).
		WithArgs("", int64(7)).
		WillReturnRows(sqlmock.NewRows(productCols))

	_, err = s.UpdateProductField(context.Background(), 7, shop.FieldUpdate{Field: session.FieldImage})
	assert.ErrorIs(t, err, shop.ErrNotFound, "inactive or missing product")

	_, err = s.UpdateProductField(context.Background(), 7, shop.FieldUpdate{Field: "stock"})
	assert.ErrorIs(t, err, shop.ErrInvalidInput)
}

func TestDeactivateProduct(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q("UPDATE products SET is_active = FALSE WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE products SET is_active = FALSE WHERE id = $1")).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.DeactivateProduct(context.Background(), 7))
	assert.ErrorIs(t, s.DeactivateProduct(context.Background(), 8), shop.ErrNotFound)
}

func TestAddToCart(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(q("ON CONFLICT (user_id, product_id)")).
		WithArgs(int64(100), int64(7), 1).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(3))
	n, err := s.AddToCart(ctx, 100, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	t.Run("inactive product", func(t *testing.T) {
		mock.ExpectQuery(q("INSERT INTO cart_items")).
			WithArgs(int64(100), int64(8), 1).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}))
		_, err := s.AddToCart(ctx, 100, 8, 1)
		var nf *shop.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "product", nf.Entity)
	})

	t.Run("unknown user", func(t *testing.T) {
		mock.ExpectQuery(q("INSERT INTO cart_items")).
			WithArgs(int64(555), int64(7), 1).
			WillReturnError(&pq.Error{Code: pqForeignKeyViolation})
		_, err := s.AddToCart(ctx, 555, 7, 1)
		var nf *shop.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "user", nf.Entity)
	})
}

func TestCheckoutCommits(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE OF c FOR SHARE OF p")).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows(lineCols).
			AddRow(7, "Figure", 1999, "", 1).
			AddRow(8, "Mug", 500, "", 2))
	mock.ExpectQuery(q("INSERT INTO orders (user_id, total_amount, status, payment_id)")).
		WithArgs(int64(100), int64(2999), "pending", "pay_1").
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(11, 100, 2999, "pending", "pay_1", now))
	mock.ExpectExec(q("INSERT INTO order_items")).
		WithArgs(int64(11), int64(7), 1, int64(1999)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(q("INSERT INTO order_items")).
		WithArgs(int64(11), int64(8), 2, int64(500)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(q("DELETE FROM cart_items WHERE user_id = $1")).
		WithArgs(int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	var charged int64
	order, err := s.Checkout(context.Background(), 100, func(_ context.Context, total int64) (string, error) {
		charged = total
		return "pay_1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2999), charged)
	assert.Equal(t, int64(11), order.ID)
	assert.Equal(t, shop.StatusPending, order.Status)
	assert.Equal(t, "pay_1", order.PaymentID)
}

func TestCheckoutEmptyCartRollsBack(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE OF c FOR SHARE OF p")).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows(lineCols))
	mock.ExpectRollback()

	_, err := s.Checkout(context.Background(), 100, func(context.Context, int64) (string, error) {
		t.Fatal("payment must not be requested for an empty cart")
		return "", nil
	})
	assert.ErrorIs(t, err, shop.ErrEmptyCart)
}

func TestCheckoutItemFailureRollsBack(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE OF c FOR SHARE OF p")).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows(lineCols).AddRow(7, "Figure", 1999, "", 1))
	mock.ExpectQuery(q("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(11, 100, 1999, "pending", "pay_1", time.Now()))
	mock.ExpectExec(q("INSERT INTO order_items")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.Checkout(context.Background(), 100, func(context.Context, int64) (string, error) {
		return "pay_1", nil
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, shop.ErrEmptyCart)
}

func TestCheckoutPaymentFailureRollsBack(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE OF c FOR SHARE OF p")).
		WillReturnRows(sqlmock.NewRows(lineCols).AddRow(7, "Figure", 1999, "", 1))
	mock.ExpectRollback()

	_, err := s.Checkout(context.Background(), 100, func(context.Context, int64) (string, error) {
		return "", errors.New("gateway down")
	})
	require.Error(t, err)
}

func TestUserOrdersNewestFirst(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(q("FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(12, 100, 500, "paid", "pay_2", now).
			AddRow(11, 100, 2999, "pending", "", now.Add(-time.Hour)))

	orders, err := s.UserOrders(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, shop.StatusPaid, orders[0].Status)
	assert.Empty(t, orders[1].PaymentID)
}

func TestOrderItemsJoinsAnyProduct(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q("FROM order_items oi")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "name", "quantity", "price"}).
			AddRow(11, 7, "Figure", 1, 1999))

	items, err := s.OrderItems(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1999), items[0].Subtotal())
}

func TestUpsertUserAndStatistics(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(q("ON CONFLICT (user_id) DO UPDATE SET")).
		WithArgs(int64(100), "buyer", "Bob", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.UpsertUser(ctx, shop.User{ID: 100, Username: "buyer", FirstName: "Bob"}))

	mock.ExpectQuery(q("SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = $1")).
		WithArgs("paid").
		WillReturnRows(sqlmock.NewRows([]string{"users", "orders", "revenue"}).AddRow(5, 3, 4500))
	st, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, shop.Stats{Users: 5, Orders: 3, Revenue: 4500}, st)
}

func TestSeedDemoSkipsNonEmptyCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(q("SELECT COUNT(*) FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := DemoSeeder().Seed(context.Background(), sqlx.NewDb(db, "postgres"))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedDemoFillsEmptyCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(q("SELECT COUNT(*) FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	for i, d := range DemoCatalog {
		mock.ExpectQuery(q("INSERT INTO products")).
			WithArgs(d.Name, d.Description, d.Price, d.Category, d.ImagePath).
			WillReturnRows(sqlmock.NewRows(productCols).
				AddRow(i+1, d.Name, d.Description, d.Price, d.Category, d.ImagePath, true, time.Now()))
	}

	n, err := DemoSeeder().Seed(context.Background(), sqlx.NewDb(db, "postgres"))
	require.NoError(t, err)
	assert.Equal(t, len(DemoCatalog), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
