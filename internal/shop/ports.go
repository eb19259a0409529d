package shop

import "context"

// Catalog reads and mutates products.
type Catalog interface {
	// ListProducts returns active products, all of them when category is empty.
	ListProducts(ctx context.Context, category string) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
	// GetProduct resolves a product regardless of its active flag.
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, d ProductDraft) (Product, error)
	// UpdateProductField changes one field of an active product.
	UpdateProductField(ctx context.Context, id int64, upd FieldUpdate) (Product, error)
	DeactivateProduct(ctx context.Context, id int64) error
}

// Users is the user directory.
type Users interface {
	UpsertUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id int64) (User, error)
	ListUsers(ctx context.Context, limit int) ([]User, error)
	UserIDs(ctx context.Context) ([]int64, error)
	Statistics(ctx context.Context) (Stats, error)
}

// Carts is the cart ledger.
type Carts interface {
	// AddToCart adds qty units and returns the resulting quantity.
	AddToCart(ctx context.Context, userID, productID int64, qty int) (int, error)
	CartLines(ctx context.Context, userID int64) ([]CartLine, error)
	RemoveFromCart(ctx context.Context, userID, productID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

// PayFunc obtains a payment reference for the frozen order total. It runs
// inside the checkout transaction; an error aborts the checkout.
type PayFunc func(ctx context.Context, total int64) (reference string, err error)

// Orders is the order journal.
type Orders interface {
	// Checkout turns the cart into a pending order atomically and empties the cart.
	Checkout(ctx context.Context, userID int64, pay PayFunc) (Order, error)
	UserOrders(ctx context.Context, userID int64) ([]Order, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	OrderItems(ctx context.Context, orderID int64) ([]OrderItem, error)
	RecentOrders(ctx context.Context, limit int) ([]Order, error)
}

// Store groups the repositories the service needs.
type Store interface {
	Catalog
	Users
	Carts
	Orders
}

// Payments creates payment intents.
type Payments interface {
	Create(ctx context.Context, amount int64, description string, userID int64) (Payment, error)
}

// Messenger delivers a plain text message to a user.
type Messenger interface {
	Deliver(ctx context.Context, userID int64, text string) error
}

// Roles answers admin membership.
type Roles interface {
	IsAdmin(userID int64) bool
}

// AdminSet is a static set of admin ids.
type AdminSet map[int64]struct{}

// NewAdminSet builds an AdminSet from ids.
func NewAdminSet(ids ...int64) AdminSet {
	s := make(AdminSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s AdminSet) IsAdmin(userID int64) bool {
	_, ok := s[userID]
	return ok
}
