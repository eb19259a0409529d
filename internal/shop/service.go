package shop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/internal/session"
)

// Options tune the Service.
type Options struct {
	// StoreTimeout bounds every store call.
	StoreTimeout time.Duration
	// BroadcastConcurrency caps in-flight deliveries.
	BroadcastConcurrency int
	// BroadcastTimeout bounds a single delivery.
	BroadcastTimeout time.Duration
	// CancelTexts are the inputs that abandon a pending session (matched case-insensitively).
	CancelTexts []string
	// ShopName is used in payment descriptions.
	ShopName string
}

func (o Options) withDefaults() Options {
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 5 * time.Second
	}
	if o.BroadcastConcurrency <= 0 {
		o.BroadcastConcurrency = 8
	}
	if o.BroadcastTimeout <= 0 {
		o.BroadcastTimeout = 10 * time.Second
	}
	if len(o.CancelTexts) == 0 {
		o.CancelTexts = []string{"/cancel"}
	}
	if o.ShopName == "" {
		o.ShopName = "Shop"
	}
	return o
}

// Service implements the storefront operations. Every state transition and
// cart mutation of a user runs under that user's lock.
type Service struct {
	store    Store
	payments Payments
	msg      Messenger
	roles    Roles
	sessions session.Store
	locks    *session.Locker
	opts     Options
}

// New wires a Service.
func New(store Store, payments Payments, msg Messenger, roles Roles, sessions session.Store, opts Options) *Service {
	return &Service{
		store:    store,
		payments: payments,
		msg:      msg,
		roles:    roles,
		sessions: sessions,
		locks:    session.NewLocker(),
		opts:     opts.withDefaults(),
	}
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.StoreTimeout)
}

// IsAdmin reports whether userID belongs to the admin set.
func (s *Service) IsAdmin(userID int64) bool {
	return s.roles != nil && s.roles.IsAdmin(userID)
}

func (s *Service) requireAdmin(ctx context.Context, userID int64, op string) error {
	if s.IsAdmin(userID) {
		return nil
	}
	logger.Warn(ctx, logger.CompUsers, "admin.denied",
		slog.Int64("user_id", userID),
		slog.String("op", op),
	)
	return fmt.Errorf("%s: %w", op, ErrPermission)
}

// RegisterUser upserts the profile and abandons any pending session.
func (s *Service) RegisterUser(ctx context.Context, u User) error {
	unlock := s.locks.Lock(u.ID)
	defer unlock()

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.store.UpsertUser(sctx, u); err != nil {
		return storeErr("upsert user", err)
	}
	if prev := s.sessions.Get(u.ID); prev.Pending() {
		s.sessions.Clear(u.ID)
		logger.Info(ctx, logger.CompSession, "session.abandoned",
			slog.Int64("user_id", u.ID),
			slog.String("state", prev.Kind.String()),
		)
	}
	logger.Debug(ctx, logger.CompUsers, "user.upserted", slog.Int64("user_id", u.ID))
	return nil
}

// Profile returns the stored profile of userID.
func (s *Service) Profile(ctx context.Context, userID int64) (User, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	u, err := s.store.GetUser(sctx, userID)
	return u, storeErr("get user", err)
}

// Categories lists the categories that have at least one active product.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	cats, err := s.store.Categories(sctx)
	return cats, storeErr("categories", err)
}

// ListProducts lists active products, optionally of one category.
func (s *Service) ListProducts(ctx context.Context, category string) ([]Product, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	ps, err := s.store.ListProducts(sctx, category)
	return ps, storeErr("list products", err)
}

// Product returns an active product for display.
func (s *Service) Product(ctx context.Context, id int64) (Product, error) {
	return s.activeProduct(ctx, id)
}

func (s *Service) activeProduct(ctx context.Context, id int64) (Product, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	p, err := s.store.GetProduct(sctx, id)
	if err != nil {
		return Product{}, storeErr("get product", err)
	}
	if !p.IsActive {
		return Product{}, NotFound("product", id)
	}
	return p, nil
}

// AddToCart adds qty units of productID and returns the new quantity in the cart.
func (s *Service) AddToCart(ctx context.Context, userID, productID int64, qty int) (int, error) {
	if qty <= 0 {
		return 0, invalid("quantity", "must be positive")
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, err := s.store.AddToCart(sctx, userID, productID, qty)
	if err != nil {
		return 0, storeErr("add to cart", err)
	}
	logger.Info(ctx, logger.CompCart, "cart.added",
		slog.Int64("user_id", userID),
		slog.Int64("product_id", productID),
		slog.Int("quantity", n),
	)
	return n, nil
}

// Cart returns the user's cart with current prices.
func (s *Service) Cart(ctx context.Context, userID int64) (Cart, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	lines, err := s.store.CartLines(sctx, userID)
	return Cart(lines), storeErr("cart", err)
}

// RemoveFromCart drops one product from the cart. Missing entries are ignored.
func (s *Service) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.store.RemoveFromCart(sctx, userID, productID); err != nil {
		return storeErr("remove from cart", err)
	}
	logger.Info(ctx, logger.CompCart, "cart.removed",
		slog.Int64("user_id", userID),
		slog.Int64("product_id", productID),
	)
	return nil
}

// ClearCart empties the cart.
func (s *Service) ClearCart(ctx context.Context, userID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.store.ClearCart(sctx, userID); err != nil {
		return storeErr("clear cart", err)
	}
	logger.Info(ctx, logger.CompCart, "cart.cleared", slog.Int64("user_id", userID))
	return nil
}

// Checkout converts the cart into a pending order priced at the current
// product prices and returns the payment redirect.
func (s *Service) Checkout(ctx context.Context, userID int64) (CheckoutResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var redirect string
	pay := func(ctx context.Context, total int64) (string, error) {
		desc := fmt.Sprintf("%s order for user %d", s.opts.ShopName, userID)
		p, err := s.payments.Create(ctx, total, desc, userID)
		if err != nil {
			return "", fmt.Errorf("create payment: %w", err)
		}
		redirect = p.RedirectURL
		return p.Reference, nil
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	order, err := s.store.Checkout(sctx, userID, pay)
	if err != nil {
		return CheckoutResult{}, storeErr("checkout", err)
	}
	logger.Info(ctx, logger.CompOrders, "order.created",
		slog.Int64("user_id", userID),
		slog.Int64("order_id", order.ID),
		slog.Int64("total", order.TotalAmount),
		slog.String("payment_id", order.PaymentID),
	)
	return CheckoutResult{Order: order, RedirectURL: redirect}, nil
}

// UserOrders lists the user's orders, newest first.
func (s *Service) UserOrders(ctx context.Context, userID int64) ([]Order, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	orders, err := s.store.UserOrders(sctx, userID)
	return orders, storeErr("user orders", err)
}

// OrderDetails returns an order and its items. Only the owner or an admin may view it.
func (s *Service) OrderDetails(ctx context.Context, userID, orderID int64) (Order, []OrderItem, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	order, err := s.store.GetOrder(sctx, orderID)
	if err != nil {
		return Order{}, nil, storeErr("get order", err)
	}
	if order.UserID != userID && !s.IsAdmin(userID) {
		return Order{}, nil, fmt.Errorf("order %d: %w", orderID, ErrPermission)
	}
	items, err := s.store.OrderItems(sctx, orderID)
	if err != nil {
		return Order{}, nil, storeErr("order items", err)
	}
	return order, items, nil
}

// Session returns the current session state of userID.
func (s *Service) Session(userID int64) session.State {
	return s.sessions.Get(userID)
}

// BeginAddProduct starts the new-product dialogue.
func (s *Service) BeginAddProduct(ctx context.Context, userID int64) error {
	return s.begin(ctx, userID, "add product", session.ProductFields())
}

// BeginBroadcast starts the broadcast dialogue.
func (s *Service) BeginBroadcast(ctx context.Context, userID int64) error {
	return s.begin(ctx, userID, "broadcast", session.BroadcastText())
}

func (s *Service) begin(ctx context.Context, userID int64, op string, st session.State) error {
	if err := s.requireAdmin(ctx, userID, op); err != nil {
		return err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()
	s.transition(ctx, userID, st)
	return nil
}

// BeginFieldEdit starts editing one field of an active product and returns the product.
func (s *Service) BeginFieldEdit(ctx context.Context, userID, productID int64, field session.Field) (Product, error) {
	if err := s.requireAdmin(ctx, userID, "edit product"); err != nil {
		return Product{}, err
	}
	if _, ok := session.ParseField(string(field)); !ok {
		return Product{}, invalid("field", "unknown field "+string(field))
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	p, err := s.activeProduct(ctx, productID)
	if err != nil {
		s.reset(ctx, userID, err)
		return Product{}, err
	}
	s.transition(ctx, userID, session.FieldEdit(productID, field))
	return p, nil
}

// Cancel resets the session to idle and returns the abandoned state.
// Committed mutations are never rolled back.
func (s *Service) Cancel(ctx context.Context, userID int64) session.State {
	unlock := s.locks.Lock(userID)
	defer unlock()
	prev := s.sessions.Get(userID)
	s.sessions.Clear(userID)
	if prev.Pending() {
		logger.Info(ctx, logger.CompSession, "session.cancelled",
			slog.Int64("user_id", userID),
			slog.String("state", prev.Kind.String()),
		)
	}
	return prev
}

func (s *Service) transition(ctx context.Context, userID int64, st session.State) {
	s.sessions.Set(userID, st)
	logger.Info(ctx, logger.CompSession, "session.transition",
		slog.Int64("user_id", userID),
		slog.String("state", st.Kind.String()),
	)
}

// reset clears the session after a failed resolution.
func (s *Service) reset(ctx context.Context, userID int64, cause error) {
	s.sessions.Clear(userID)
	attrs := append([]slog.Attr{slog.Int64("user_id", userID)}, logger.ErrAttrs(cause)...)
	logger.Warn(ctx, logger.CompSession, "session.reset", attrs...)
}

func (s *Service) isCancel(text string) bool {
	text = strings.TrimSpace(text)
	for _, c := range s.opts.CancelTexts {
		if strings.EqualFold(text, strings.TrimSpace(c)) {
			return true
		}
	}
	return false
}

// DeleteProduct soft-deletes a product.
func (s *Service) DeleteProduct(ctx context.Context, userID, productID int64) error {
	if err := s.requireAdmin(ctx, userID, "delete product"); err != nil {
		return err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.store.DeactivateProduct(sctx, productID); err != nil {
		return storeErr("deactivate product", err)
	}
	logger.Info(ctx, logger.CompCatalog, "product.deactivated",
		slog.Int64("user_id", userID),
		slog.Int64("product_id", productID),
	)
	return nil
}

// EditableProducts lists the active products for the admin editing menu.
func (s *Service) EditableProducts(ctx context.Context, userID int64) ([]Product, error) {
	if err := s.requireAdmin(ctx, userID, "edit menu"); err != nil {
		return nil, err
	}
	return s.ListProducts(ctx, "")
}

// AdminProduct returns an active product for the admin product menu.
func (s *Service) AdminProduct(ctx context.Context, userID, productID int64) (Product, error) {
	if err := s.requireAdmin(ctx, userID, "edit product"); err != nil {
		return Product{}, err
	}
	return s.activeProduct(ctx, productID)
}

// Statistics returns the dashboard counters.
func (s *Service) Statistics(ctx context.Context, userID int64) (Stats, error) {
	if err := s.requireAdmin(ctx, userID, "statistics"); err != nil {
		return Stats{}, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	st, err := s.store.Statistics(sctx)
	return st, storeErr("statistics", err)
}

// Users lists the most recently registered users.
func (s *Service) Users(ctx context.Context, userID int64, limit int) ([]User, error) {
	if err := s.requireAdmin(ctx, userID, "users"); err != nil {
		return nil, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	users, err := s.store.ListUsers(sctx, limit)
	return users, storeErr("list users", err)
}

// RecentOrders lists the latest orders of all users.
func (s *Service) RecentOrders(ctx context.Context, userID int64, limit int) ([]Order, error) {
	if err := s.requireAdmin(ctx, userID, "recent orders"); err != nil {
		return nil, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	orders, err := s.store.RecentOrders(sctx, limit)
	return orders, storeErr("recent orders", err)
}
