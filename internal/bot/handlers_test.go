package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/internal/session"
	"github.com/m3rciful/shopbot/internal/shop"

	tele "gopkg.in/telebot.v4"
)

func catalog() *stubStore {
	return &stubStore{products: []shop.Product{
		{ID: 1, Name: "Blue <T-Shirt>", Price: 1500, Category: "Clothes", IsActive: true},
		{ID: 2, Name: "Figure", Price: 1999, Category: "Figures", IsActive: true},
		{ID: 3, Name: "Old mug", Price: 100, Category: "Kitchen", IsActive: false},
	}}
}

func TestRegisterWiresCommandsAliasesAndCallbacks(t *testing.T) {
	h := newHandlers(catalog())
	reg := tg.NewRegistry()
	require.NoError(t, h.Register(reg))

	for label, want := range map[string]string{
		LabelCatalog:       "/catalog",
		LabelCart:          "/cart",
		LabelMainMenu:      "/start",
		DefaultCancelLabel: "/cancel",
		LabelBroadcast:     "/broadcast",
		"catalog":          "/catalog",
	} {
		name, _, ok := reg.LookupCommand(label)
		require.True(t, ok, label)
		assert.Equal(t, want, name)
	}

	_, cmd, _ := reg.LookupCommand("/addproduct")
	assert.True(t, cmd.AdminOnly)
	_, cmd, _ = reg.LookupCommand("/cart")
	assert.False(t, cmd.AdminOnly)

	keys := reg.ListCallbacks()
	for _, k := range []Kind{ActAddToCart, ActEditField, ActCategory, ActPayOrder, ActAdminAllOrders} {
		assert.Contains(t, keys, string(k))
	}
	assert.Error(t, h.Register(reg), "second registration collides")
}

func TestCallbackKey(t *testing.T) {
	h := newHandlers(catalog())
	reg := tg.NewRegistry()
	require.NoError(t, h.Register(reg))

	for data, want := range map[string]string{
		"add_to_cart_7": "add_to_cart",
		"edit_price_7":  "edit_field",
		"cat_Figures":   "cat",
		"checkout":      "checkout",
		"edit_stock_7":  "",
		"favorite_1":    "",
	} {
		key := CallbackKey(&tele.Callback{Data: data})
		assert.Equal(t, want, key, data)
		if want != "" {
			_, ok := reg.GetCallback(key)
			assert.True(t, ok, "handler for %s", key)
		}
	}
}

func TestCatalogListsCategories(t *testing.T) {
	h := newHandlers(catalog())
	c := newMessage(buyerID, LabelCatalog)

	require.NoError(t, h.Catalog(c))
	require.Len(t, c.sent, 1)
	kb := c.markups[0]
	require.NotNil(t, kb)
	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			data = append(data, b.Data)
		}
	}
	assert.Equal(t, []string{"cat_Clothes", "cat_Figures", "all_products", "back_to_main"}, data)
}

func TestCategoryCardsEscapeAndShowCartQuantity(t *testing.T) {
	store := catalog()
	h := newHandlers(store)
	store.cart[1] = 2

	c := newCallback(buyerID, "cat_Clothes")
	require.NoError(t, h.onCategory(c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.lastText(), "Blue &lt;T-Shirt&gt;")
	assert.Contains(t, c.lastText(), "1 500 ₽")
	assert.Equal(t, "✅ In cart: 2", c.markups[0].InlineKeyboard[1][0].Text)
}

func TestAddToCartToasts(t *testing.T) {
	h := newHandlers(catalog())

	c := newCallback(buyerID, "add_to_cart_2")
	require.NoError(t, h.onAddToCart(c))
	c = newCallback(buyerID, "add_to_cart_2")
	require.NoError(t, h.onAddToCart(c))
	assert.Equal(t, []string{"✅ Figure added to cart (2)"}, c.toasts)

	gone := newCallback(buyerID, "add_to_cart_3")
	require.NoError(t, h.onAddToCart(gone))
	assert.Contains(t, gone.lastText(), "Not found")
}

func TestAddProductDialogue(t *testing.T) {
	store := catalog()
	h := newHandlers(store)

	require.NoError(t, h.AddProduct(newMessage(adminID, LabelAddProduct)))
	assert.True(t, h.InProgress(adminID))
	assert.False(t, h.InProgress(buyerID))

	bad := newMessage(adminID, "only|three|parts")
	require.NoError(t, h.ManagerHandler(bad))
	assert.Contains(t, bad.lastText(), "❌")
	assert.True(t, h.InProgress(adminID), "validation keeps the dialogue")

	ok := newMessage(adminID, "Mug | Big mug | 500 | Kitchen")
	require.NoError(t, h.ManagerHandler(ok))
	assert.Contains(t, ok.lastText(), "<b>Mug</b> added")
	assert.False(t, h.InProgress(adminID))
	require.Len(t, store.created, 1)
	assert.Equal(t, int64(500), store.created[0].Price)
}

func TestCancelDuringDialogue(t *testing.T) {
	h := newHandlers(catalog())
	require.NoError(t, h.Broadcast(newMessage(adminID, LabelBroadcast)))
	assert.Equal(t, session.AwaitingBroadcastText, h.svc.Session(adminID).Kind)

	c := newMessage(adminID, DefaultCancelLabel)
	require.NoError(t, h.ManagerHandler(c))
	assert.Equal(t, "❌ Cancelled", c.lastText())
	assert.False(t, h.InProgress(adminID))

	c = newMessage(adminID, "/cancel")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, "Nothing to cancel.", c.lastText())
}

func TestNonAdminIsRefused(t *testing.T) {
	store := catalog()
	h := newHandlers(store)

	c := newMessage(buyerID, LabelAddProduct)
	require.NoError(t, h.AddProduct(c))
	assert.Equal(t, "🚫 Access denied", c.lastText())
	assert.False(t, h.InProgress(buyerID))

	cb := newCallback(buyerID, "edit_price_1")
	require.NoError(t, h.onEditField(cb))
	assert.Equal(t, []string{"🚫 Access denied"}, cb.toasts)
}

func TestStoreFailureIsReportedAndReturned(t *testing.T) {
	store := catalog()
	store.err = errors.New("connection refused")
	h := newHandlers(store)

	c := newMessage(buyerID, LabelCatalog)
	err := h.Catalog(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, shop.ErrStoreUnavailable)
	assert.Contains(t, c.lastText(), "temporarily unavailable")
}

func TestEditFieldPromptsWithCancelKeyboard(t *testing.T) {
	h := newHandlers(catalog())

	c := newCallback(adminID, "edit_price_2")
	require.NoError(t, h.onEditField(c))
	assert.Contains(t, c.lastText(), "price of <b>Figure</b>")
	require.NotNil(t, c.markups[0])
	assert.Equal(t, DefaultCancelLabel, c.markups[0].ReplyKeyboard[0][0].Text)
	assert.Equal(t, session.FieldEdit(2, session.FieldPrice), h.svc.Session(adminID))

	missing := newCallback(adminID, "edit_name_3")
	require.NoError(t, h.onEditField(missing))
	assert.Contains(t, missing.lastText(), "Not found")
	assert.False(t, h.InProgress(adminID))
}
