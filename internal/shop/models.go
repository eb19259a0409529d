// Package shop implements the storefront: catalog, cart, checkout, the user
// directory and the admin session flows on top of a Store.
package shop

import (
	"time"

	"github.com/m3rciful/shopbot/internal/session"
)

// Product is a catalog entry. Inactive products are hidden from listings but
// stay resolvable for order history.
type Product struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Price       int64     `db:"price"`
	Category    string    `db:"category"`
	ImagePath   string    `db:"image_path"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

// ProductDraft carries the fields of a product to create.
type ProductDraft struct {
	Name        string
	Description string
	Price       int64
	Category    string
	ImagePath   string
}

// FieldUpdate is a parsed single-field edit. Price is used for the price field,
// Text for every other field. An empty Text on the image field removes the image.
type FieldUpdate struct {
	Field session.Field
	Text  string
	Price int64
}

// User is a profile in the user directory. Phone and Address are collected out of band.
type User struct {
	ID        int64     `db:"user_id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Phone     string    `db:"phone"`
	Address   string    `db:"address"`
	CreatedAt time.Time `db:"created_at"`
}

// DisplayName returns the best available human name.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	}
	return "user"
}

// CartLine is a cart entry joined with the current product data.
type CartLine struct {
	ProductID int64  `db:"product_id"`
	Name      string `db:"name"`
	Price     int64  `db:"price"`
	ImagePath string `db:"image_path"`
	Quantity  int    `db:"quantity"`
}

// Subtotal is quantity times the current price.
func (l CartLine) Subtotal() int64 { return int64(l.Quantity) * l.Price }

// Cart is the list of a user's cart lines.
type Cart []CartLine

// Total sums the line subtotals.
func (c Cart) Total() int64 {
	var t int64
	for _, l := range c {
		t += l.Subtotal()
	}
	return t
}

// QuantityOf returns how many units of productID are in the cart.
func (c Cart) QuantityOf(productID int64) int {
	for _, l := range c {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// OrderStatus is the payment lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"
)

// Order is an immutable snapshot created at checkout.
type Order struct {
	ID          int64       `db:"id"`
	UserID      int64       `db:"user_id"`
	TotalAmount int64       `db:"total_amount"`
	Status      OrderStatus `db:"status"`
	PaymentID   string      `db:"payment_id"`
	CreatedAt   time.Time   `db:"created_at"`
}

// OrderItem is one line of an order with the unit price frozen at checkout.
type OrderItem struct {
	OrderID   int64  `db:"order_id"`
	ProductID int64  `db:"product_id"`
	Name      string `db:"name"`
	Quantity  int    `db:"quantity"`
	Price     int64  `db:"price"`
}

// Subtotal is quantity times the frozen unit price.
func (i OrderItem) Subtotal() int64 { return int64(i.Quantity) * i.Price }

// Stats aggregates the admin dashboard numbers. Revenue counts paid orders only.
type Stats struct {
	Users   int64 `db:"users"`
	Orders  int64 `db:"orders"`
	Revenue int64 `db:"revenue"`
}

// Payment is what the payment collaborator returns for a new order.
type Payment struct {
	Reference   string
	RedirectURL string
}

// CheckoutResult is the created order and where to pay for it.
type CheckoutResult struct {
	Order       Order
	RedirectURL string
}
