package shop

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/shopbot/internal/session"
)

// memStore is an in-memory Store with the same semantics as the SQL store.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]Product
	users    map[int64]User
	carts    map[int64]map[int64]int
	orders   []Order
	items    map[int64][]OrderItem

	failUserIDs error
}

func newMemStore() *memStore {
	return &memStore{
		products: map[int64]Product{},
		users:    map[int64]User{},
		carts:    map[int64]map[int64]int{},
		items:    map[int64][]OrderItem{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) ListProducts(_ context.Context, category string) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.products {
		if p.IsActive && (category == "" || p.Category == category) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) Categories(ctx context.Context) ([]string, error) {
	ps, _ := m.ListProducts(ctx, "")
	seen := map[string]bool{}
	var out []string
	for _, p := range ps {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) GetProduct(_ context.Context, id int64) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, NotFound("product", id)
	}
	return p, nil
}

func (m *memStore) CreateProduct(_ context.Context, d ProductDraft) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := Product{
		ID:          m.id(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		ImagePath:   d.ImagePath,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	m.products[p.ID] = p
	return p, nil
}

func (m *memStore) UpdateProductField(_ context.Context, id int64, upd FieldUpdate) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || !p.IsActive {
		return Product{}, NotFound("product", id)
	}
	switch upd.Field {
	case session.FieldName:
		p.Name = upd.Text
	case session.FieldDescription:
		p.Description = upd.Text
	case session.FieldPrice:
		p.Price = upd.Price
	case session.FieldCategory:
		p.Category = upd.Text
	case session.FieldImage:
		p.ImagePath = upd.Text
	}
	m.products[id] = p
	return p, nil
}

func (m *memStore) DeactivateProduct(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return NotFound("product", id)
	}
	p.IsActive = false
	m.products[id] = p
	return nil
}

func (m *memStore) UpsertUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.users[u.ID]; ok {
		u.CreatedAt = old.CreatedAt
	}
	m.users[u.ID] = u
	return nil
}

func (m *memStore) GetUser(_ context.Context, id int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, NotFound("user", id)
	}
	return u, nil
}

func (m *memStore) ListUsers(_ context.Context, limit int) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) UserIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUserIDs != nil {
		return nil, m.failUserIDs
	}
	var out []int64
	for id := range m.users {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *memStore) Statistics(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Stats{Users: int64(len(m.users)), Orders: int64(len(m.orders))}
	for _, o := range m.orders {
		if o.Status == StatusPaid {
			st.Revenue += o.TotalAmount
		}
	}
	return st, nil
}

func (m *memStore) AddToCart(_ context.Context, userID, productID int64, qty int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return 0, NotFound("user", userID)
	}
	if p, ok := m.products[productID]; !ok || !p.IsActive {
		return 0, NotFound("product", productID)
	}
	if m.carts[userID] == nil {
		m.carts[userID] = map[int64]int{}
	}
	m.carts[userID][productID] += qty
	return m.carts[userID][productID], nil
}

func (m *memStore) CartLines(_ context.Context, userID int64) ([]CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linesLocked(userID), nil
}

func (m *memStore) linesLocked(userID int64) []CartLine {
	var out []CartLine
	for pid, qty := range m.carts[userID] {
		p := m.products[pid]
		if !p.IsActive {
			continue
		}
		out = append(out, CartLine{ProductID: pid, Name: p.Name, Price: p.Price, ImagePath: p.ImagePath, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (m *memStore) RemoveFromCart(_ context.Context, userID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts[userID], productID)
	return nil
}

func (m *memStore) ClearCart(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

func (m *memStore) Checkout(ctx context.Context, userID int64, pay PayFunc) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.linesLocked(userID)
	if len(lines) == 0 {
		return Order{}, ErrEmptyCart
	}
	total := Cart(lines).Total()
	ref, err := pay(ctx, total)
	if err != nil {
		return Order{}, err
	}
	o := Order{ID: m.id(), UserID: userID, TotalAmount: total, Status: StatusPending, PaymentID: ref, CreatedAt: time.Now()}
	m.orders = append(m.orders, o)
	for _, l := range lines {
		m.items[o.ID] = append(m.items[o.ID], OrderItem{OrderID: o.ID, ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, Price: l.Price})
	}
	delete(m.carts, userID)
	return o, nil
}

func (m *memStore) UserOrders(_ context.Context, userID int64) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].UserID == userID {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

func (m *memStore) GetOrder(_ context.Context, id int64) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, NotFound("order", id)
}

func (m *memStore) OrderItems(_ context.Context, orderID int64) ([]OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]OrderItem(nil), m.items[orderID]...), nil
}

func (m *memStore) RecentOrders(_ context.Context, limit int) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for i := len(m.orders) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.orders[i])
	}
	return out, nil
}

type fakePayments struct {
	calls  int
	amount int64
	err    error
}

func (f *fakePayments) Create(_ context.Context, amount int64, _ string, _ int64) (Payment, error) {
	f.calls++
	f.amount = amount
	if f.err != nil {
		return Payment{}, f.err
	}
	return Payment{Reference: "pay_test", RedirectURL: "https://pay.example/pay_test"}, nil
}

type fakeMessenger struct {
	mu    sync.Mutex
	fail  map[int64]bool
	texts map[int64]string
	// hang holds deliveries to these users until their context ends.
	hang map[int64]bool
}

var errBlocked = errors.New("bot was blocked by the user")

func (f *fakeMessenger) Deliver(ctx context.Context, userID int64, text string) error {
	f.mu.Lock()
	hang := f.hang[userID]
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[userID] {
		return errBlocked
	}
	if f.texts == nil {
		f.texts = map[int64]string{}
	}
	f.texts[userID] = text
	return nil
}
