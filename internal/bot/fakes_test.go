package bot

import (
	"context"
	"sync"
	"time"

	"github.com/m3rciful/shopbot/internal/session"
	"github.com/m3rciful/shopbot/internal/shop"

	tele "gopkg.in/telebot.v4"
)

const (
	adminID int64 = 1
	buyerID int64 = 100
)

// fakeCtx records what handlers send. Methods not overridden panic.
type fakeCtx struct {
	tele.Context

	sender *tele.User
	text   string
	cb     *tele.Callback
	store  map[string]interface{}

	sent    []interface{}
	markups []*tele.ReplyMarkup
	edited  []interface{}
	toasts  []string
}

func newMessage(uid int64, text string) *fakeCtx {
	return &fakeCtx{sender: &tele.User{ID: uid, FirstName: "Ann"}, text: text, store: map[string]interface{}{}}
}

func newCallback(uid int64, data string) *fakeCtx {
	c := newMessage(uid, "")
	c.cb = &tele.Callback{Data: data, Message: &tele.Message{ID: 5}}
	return c
}

func (c *fakeCtx) Sender() *tele.User            { return c.sender }
func (c *fakeCtx) Chat() *tele.Chat              { return &tele.Chat{ID: c.sender.ID} }
func (c *fakeCtx) Update() tele.Update           { return tele.Update{ID: 42} }
func (c *fakeCtx) Text() string                  { return c.text }
func (c *fakeCtx) Callback() *tele.Callback      { return c.cb }
func (c *fakeCtx) Message() *tele.Message        { return nil }
func (c *fakeCtx) Get(key string) interface{}    { return c.store[key] }
func (c *fakeCtx) Set(key string, v interface{}) { c.store[key] = v }

func (c *fakeCtx) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, what)
	c.markups = append(c.markups, markupOf(opts))
	return nil
}

func (c *fakeCtx) EditOrSend(what interface{}, opts ...interface{}) error {
	c.edited = append(c.edited, what)
	c.markups = append(c.markups, markupOf(opts))
	return nil
}

func (c *fakeCtx) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) > 0 && resp[0] != nil {
		c.toasts = append(c.toasts, resp[0].Text)
	}
	return nil
}

func markupOf(opts []interface{}) *tele.ReplyMarkup {
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so.ReplyMarkup
		}
	}
	return nil
}

func (c *fakeCtx) lastText() string {
	all := append(append([]interface{}{}, c.sent...), c.edited...)
	if len(all) == 0 {
		return ""
	}
	s, _ := all[len(all)-1].(string)
	return s
}

// stubStore serves a fixed catalog. Unused methods panic through the nil embed.
type stubStore struct {
	shop.Store

	mu       sync.Mutex
	products []shop.Product
	cart     map[int64]int
	created  []shop.ProductDraft
	err      error
}

func (s *stubStore) ListProducts(_ context.Context, category string) ([]shop.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []shop.Product
	for _, p := range s.products {
		if p.IsActive && (category == "" || p.Category == category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) Categories(context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	seen := map[string]bool{}
	var out []string
	for _, p := range s.products {
		if p.IsActive && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out, nil
}

func (s *stubStore) GetProduct(_ context.Context, id int64) (shop.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return shop.Product{}, shop.NotFound("product", id)
}

func (s *stubStore) CreateProduct(_ context.Context, d shop.ProductDraft) (shop.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, d)
	p := shop.Product{ID: int64(100 + len(s.created)), Name: d.Name, Price: d.Price, Category: d.Category, IsActive: true}
	s.products = append(s.products, p)
	return p, nil
}

func (s *stubStore) UpsertUser(context.Context, shop.User) error { return s.err }

func (s *stubStore) AddToCart(_ context.Context, _, productID int64, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart[productID] += qty
	return s.cart[productID], nil
}

func (s *stubStore) CartLines(context.Context, int64) ([]shop.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []shop.CartLine
	for _, p := range s.products {
		if q := s.cart[p.ID]; q > 0 {
			out = append(out, shop.CartLine{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: q})
		}
	}
	return out, nil
}

func newHandlers(store *stubStore) *Handlers {
	if store.cart == nil {
		store.cart = map[int64]int{}
	}
	svc := shop.New(store, nil, &Messenger{}, shop.NewAdminSet(adminID), session.NewMemoryStore(time.Hour), shop.Options{
		CancelTexts: []string{DefaultCancelLabel, "/cancel"},
	})
	return New(svc, Config{ShopName: "Test <Shop>", Currency: "₽"})
}
