// Package bot maps Telegram updates onto shop operations.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/format"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/internal/shop"

	tele "gopkg.in/telebot.v4"
)

const (
	defaultMaxCards = 20
	usersPageSize   = 10
	ordersPreview   = 5
	ordersPageSize  = 20
)

// Config holds presentation settings.
type Config struct {
	ShopName    string
	Currency    string
	CancelText  string
	SupportText string
	// MaxCards caps the product cards sent for one category.
	MaxCards int
}

// Handlers holds every update handler of the storefront.
type Handlers struct {
	svc *shop.Service
	r   renderer
	cfg Config
}

// New builds the handlers on top of svc.
func New(svc *shop.Service, cfg Config) *Handlers {
	if cfg.CancelText == "" {
		cfg.CancelText = DefaultCancelLabel
	}
	if cfg.MaxCards <= 0 {
		cfg.MaxCards = defaultMaxCards
	}
	if cfg.ShopName == "" {
		cfg.ShopName = "Shop"
	}
	return &Handlers{
		svc: svc,
		r:   renderer{shopName: cfg.ShopName, currency: cfg.Currency, support: cfg.SupportText},
		cfg: cfg,
	}
}

func (h *Handlers) ctx(c tele.Context) (context.Context, int64) {
	return tghelpers.BuildContext(c), tghelpers.SenderID(c)
}

func (h *Handlers) menuFor(c tele.Context) *tele.ReplyMarkup {
	return mainMenu(h.svc.IsAdmin(tghelpers.SenderID(c)))
}

// show edits the message behind a button when possible and sends otherwise.
// Photo cards cannot become text messages, so they are answered with a new one.
func (h *Handlers) show(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if cb := c.Callback(); cb != nil && cb.Message != nil && cb.Message.Photo == nil {
		return tghelpers.EditOrSendHTML(c, text, markup)
	}
	return tghelpers.SendHTML(c, text, markup)
}

func actionOf(c tele.Context) Action {
	if cb := c.Callback(); cb != nil {
		if a, err := ParseAction(cb.Data); err == nil {
			return a
		}
	}
	return Action{}
}

// Start registers the sender and shows the role's main menu.
func (h *Handlers) Start(c tele.Context) error {
	ctx, uid := h.ctx(c)
	s := c.Sender()
	if s == nil {
		return nil
	}
	u := shop.User{ID: uid, Username: s.Username, FirstName: s.FirstName, LastName: s.LastName}
	if err := h.svc.RegisterUser(ctx, u); err != nil {
		return h.fail(c, err)
	}
	return tghelpers.SendHTML(c, h.r.welcome(u, h.svc.IsAdmin(uid)), h.menuFor(c))
}

// Catalog lists categories.
func (h *Handlers) Catalog(c tele.Context) error {
	ctx, _ := h.ctx(c)
	cats, err := h.svc.Categories(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	if len(cats) == 0 {
		return h.show(c, "😔 The catalog is empty for now.", nil)
	}
	return h.show(c, "📁 <b>Choose a category:</b>", categoryKeyboard(cats))
}

func (h *Handlers) onCategory(c tele.Context) error {
	return h.products(c, actionOf(c).Category)
}

func (h *Handlers) onAllProducts(c tele.Context) error {
	return h.products(c, "")
}

// products sends one card per product of category ("" for all).
func (h *Handlers) products(c tele.Context, category string) error {
	ctx, uid := h.ctx(c)
	list, err := h.svc.ListProducts(ctx, category)
	if err != nil {
		return h.fail(c, err)
	}
	if len(list) == 0 {
		return h.show(c, "😔 No products here yet.", keyboard.InlineButtons(
			keyboard.Button("🏠 « Catalog", string(ActBackToCatalog)),
		))
	}
	cart, err := h.svc.Cart(ctx, uid)
	if err != nil {
		return h.fail(c, err)
	}

	shown := list
	if len(shown) > h.cfg.MaxCards {
		shown = shown[:h.cfg.MaxCards]
	}
	for _, p := range shown {
		if err := h.card(c, p, cart.QuantityOf(p.ID)); err != nil {
			return err
		}
	}
	if rest := len(list) - len(shown); rest > 0 {
		return tghelpers.SendHTML(c, fmt.Sprintf("… and %d more. Pick a category to narrow the list.", rest))
	}
	return nil
}

func (h *Handlers) card(c tele.Context, p shop.Product, inCart int) error {
	text := h.r.product(p)
	kb := productKeyboard(p.ID, inCart)
	if p.ImagePath == "" {
		return tghelpers.SendHTML(c, text, kb)
	}
	return tghelpers.SendPhotoOrText(c, imageFile(p.ImagePath), text, kb)
}

func imageFile(path string) tele.File {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return tele.FromURL(path)
	}
	return tele.FromDisk(path)
}

func (h *Handlers) onAddToCart(c tele.Context) error {
	ctx, uid := h.ctx(c)
	a := actionOf(c)
	p, err := h.svc.Product(ctx, a.ID)
	if err != nil {
		return h.fail(c, err)
	}
	qty, err := h.svc.AddToCart(ctx, uid, p.ID, 1)
	if err != nil {
		return h.fail(c, err)
	}
	if msg := c.Message(); msg != nil {
		if _, err := c.Bot().EditReplyMarkup(msg, productKeyboard(a.ID, qty)); err != nil {
			logger.Debug(ctx, logger.CompCart, "cart.markup_stale", logger.ErrAttrs(err)...)
		}
	}
	return tghelpers.Toast(c, fmt.Sprintf("✅ %s added to cart (%d)", p.Name, qty))
}

func (h *Handlers) onAlreadyInCart(c tele.Context) error {
	return tghelpers.Toast(c, "🛒 Open the cart to review it")
}

// Cart shows the cart with per-line remove buttons.
func (h *Handlers) Cart(c tele.Context) error {
	ctx, uid := h.ctx(c)
	cart, err := h.svc.Cart(ctx, uid)
	if err != nil {
		return h.fail(c, err)
	}
	if len(cart) == 0 {
		return h.show(c, "🛒 Your cart is empty", nil)
	}
	return h.show(c, h.r.cart(cart), cartKeyboard(cart))
}

func (h *Handlers) onRemoveFromCart(c tele.Context) error {
	ctx, uid := h.ctx(c)
	if err := h.svc.RemoveFromCart(ctx, uid, actionOf(c).ID); err != nil {
		return h.fail(c, err)
	}
	return h.Cart(c)
}

func (h *Handlers) onClearCart(c tele.Context) error {
	ctx, uid := h.ctx(c)
	if err := h.svc.ClearCart(ctx, uid); err != nil {
		return h.fail(c, err)
	}
	return h.show(c, "🗑 Cart cleared", nil)
}

// Checkout shows the order summary before payment.
func (h *Handlers) Checkout(c tele.Context) error {
	ctx, uid := h.ctx(c)
	cart, err := h.svc.Cart(ctx, uid)
	if err != nil {
		return h.fail(c, err)
	}
	if len(cart) == 0 {
		return h.fail(c, shop.ErrEmptyCart)
	}
	return h.show(c, h.r.checkout(cart), checkoutKeyboard())
}

func (h *Handlers) onPay(c tele.Context) error {
	ctx, uid := h.ctx(c)
	res, err := h.svc.Checkout(ctx, uid)
	if err != nil {
		return h.fail(c, err)
	}
	return h.show(c, h.r.payment(res), paymentKeyboard(res.RedirectURL))
}

// MyOrders lists the sender's orders, newest first.
func (h *Handlers) MyOrders(c tele.Context) error {
	ctx, uid := h.ctx(c)
	orders, err := h.svc.UserOrders(ctx, uid)
	if err != nil {
		return h.fail(c, err)
	}
	if len(orders) == 0 {
		return h.show(c, "📦 You have no orders yet.", nil)
	}
	return h.show(c, h.r.orders("Your orders", orders), ordersKeyboard(orders, ActBackToMain))
}

func (h *Handlers) onOrder(c tele.Context) error {
	ctx, uid := h.ctx(c)
	order, items, err := h.svc.OrderDetails(ctx, uid, actionOf(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	back := ActBackToMain
	if h.svc.IsAdmin(uid) && order.UserID != uid {
		back = ActAdminAllOrders
	}
	return h.show(c, h.r.orderDetails(order, items),
		keyboard.InlineButtons(keyboard.Button(labelBack, string(back))))
}

// Profile shows the stored profile.
func (h *Handlers) Profile(c tele.Context) error {
	ctx, uid := h.ctx(c)
	u, err := h.svc.Profile(ctx, uid)
	if err != nil {
		return h.fail(c, err)
	}
	return h.show(c, h.r.profile(u), nil)
}

// Support shows the support contact text.
func (h *Handlers) Support(c tele.Context) error {
	return h.show(c, h.r.supportText(), nil)
}

// Reply keyboards cannot be attached to edited messages, so navigation
// back to a menu always sends a fresh message.
func (h *Handlers) onBackToMain(c tele.Context) error {
	return tghelpers.SendHTML(c, "🏠 Main menu", h.menuFor(c))
}

// Cancel abandons the pending dialogue, if any.
func (h *Handlers) Cancel(c tele.Context) error {
	ctx, uid := h.ctx(c)
	prev := h.svc.Cancel(ctx, uid)
	text := "Nothing to cancel."
	if prev.Pending() {
		text = "❌ Cancelled"
	}
	return tghelpers.SendHTML(c, text, h.menuFor(c))
}

// UnknownText answers free text that matched nothing.
func (h *Handlers) UnknownText(c tele.Context) error {
	return tghelpers.SendHTML(c, "🤔 I don't understand. Use the menu below.", h.menuFor(c))
}

func (h *Handlers) unknownCallback(c tele.Context) error {
	ctx, uid := h.ctx(c)
	var data string
	if cb := c.Callback(); cb != nil {
		data = logger.SanitizeLimit(cb.Data, MaxCallbackData)
	}
	logger.Warn(ctx, logger.CompTG, "callback.unknown",
		slog.Int64("user_id", uid),
		slog.String("data", data),
	)
	return tghelpers.Toast(c, "Unsupported action")
}

// Admin shows the admin panel.
func (h *Handlers) Admin(c tele.Context) error {
	_, uid := h.ctx(c)
	if !h.svc.IsAdmin(uid) {
		return h.fail(c, fmt.Errorf("admin panel: %w", shop.ErrPermission))
	}
	return tghelpers.SendHTML(c, h.r.welcome(shop.User{ID: uid}, true), mainMenu(true))
}

// AddProduct starts the new-product dialogue.
func (h *Handlers) AddProduct(c tele.Context) error {
	ctx, uid := h.ctx(c)
	if err := h.svc.BeginAddProduct(ctx, uid); err != nil {
		return h.fail(c, err)
	}
	return tghelpers.SendHTML(c, addProductPrompt, cancelMenu(h.cfg.CancelText))
}

// Broadcast starts the broadcast dialogue.
func (h *Handlers) Broadcast(c tele.Context) error {
	ctx, uid := h.ctx(c)
	if err := h.svc.BeginBroadcast(ctx, uid); err != nil {
		return h.fail(c, err)
	}
	return tghelpers.SendHTML(c, broadcastPrompt, cancelMenu(h.cfg.CancelText))
}

// EditProducts lists active products for editing.
func (h *Handlers) EditProducts(c tele.Context) error {
	ctx, uid := h.ctx(c)
	list, err := h.svc.EditableProducts(ctx, uid)
	if err != nil {
		return h.fail(c, err)
	}
	if len(list) == 0 {
		return h.show(c, "😔 No active products.", nil)
	}
	return h.show(c, "✏️ <b>Choose a product to edit:</b>", editProductsKeyboard(list, h.cfg.Currency))
}

func (h *Handlers) onEditProduct(c tele.Context) error {
	ctx, uid := h.ctx(c)
	p, err := h.svc.AdminProduct(ctx, uid, actionOf(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.show(c, h.r.adminProduct(p), productEditKeyboard(p.ID))
}

func (h *Handlers) onEditField(c tele.Context) error {
	ctx, uid := h.ctx(c)
	a := actionOf(c)
	p, err := h.svc.BeginFieldEdit(ctx, uid, a.ID, a.Field)
	if err != nil {
		return h.fail(c, err)
	}
	return tghelpers.SendHTML(c, h.r.fieldPrompt(p, a.Field), cancelMenu(h.cfg.CancelText))
}

func (h *Handlers) onDeleteProduct(c tele.Context) error {
	ctx, uid := h.ctx(c)
	p, err := h.svc.AdminProduct(ctx, uid, actionOf(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	text := fmt.Sprintf("🗑 Delete <b>%s</b>?\nIt disappears from the catalog and carts. Past orders keep it.",
		format.HTML(p.Name))
	return h.show(c, text, confirmDeleteKeyboard(p.ID))
}

func (h *Handlers) onConfirmDelete(c tele.Context) error {
	ctx, uid := h.ctx(c)
	if err := h.svc.DeleteProduct(ctx, uid, actionOf(c).ID); err != nil {
		return h.fail(c, err)
	}
	if err := tghelpers.Toast(c, "🗑 Product deleted"); err != nil {
		logger.Debug(ctx, logger.CompCatalog, "toast.failed", logger.ErrAttrs(err)...)
	}
	return h.EditProducts(c)
}

// Stats shows shop statistics.
func (h *Handlers) Stats(c tele.Context) error {
	ctx, uid := h.ctx(c)
	st, err := h.svc.Statistics(ctx, uid)
	if err != nil {
		return h.fail(c, err)
	}
	return h.show(c, h.r.stats(st), nil)
}

// Users lists the newest users.
func (h *Handlers) Users(c tele.Context) error {
	ctx, uid := h.ctx(c)
	users, err := h.svc.Users(ctx, uid, usersPageSize)
	if err != nil {
		return h.fail(c, err)
	}
	if len(users) == 0 {
		return h.show(c, "👥 No users yet.", nil)
	}
	return h.show(c, h.r.users(users), nil)
}

// Orders shows the latest few orders with a link to the full list.
func (h *Handlers) Orders(c tele.Context) error {
	return h.recentOrders(c, ordersPreview, func([]shop.Order) *tele.ReplyMarkup {
		return adminOrdersKeyboard()
	})
}

// AllOrders lists the latest orders of every user.
func (h *Handlers) AllOrders(c tele.Context) error {
	return h.recentOrders(c, ordersPageSize, func(orders []shop.Order) *tele.ReplyMarkup {
		return ordersKeyboard(orders, ActBackToAdmin)
	})
}

func (h *Handlers) recentOrders(c tele.Context, limit int, kb func([]shop.Order) *tele.ReplyMarkup) error {
	ctx, uid := h.ctx(c)
	orders, err := h.svc.RecentOrders(ctx, uid, limit)
	if err != nil {
		return h.fail(c, err)
	}
	if len(orders) == 0 {
		return h.show(c, "📦 No orders yet.", nil)
	}
	return h.show(c, h.r.orders("Latest orders", orders), kb(orders))
}
