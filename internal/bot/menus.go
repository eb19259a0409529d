package bot

import (
	"fmt"

	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/internal/session"
	"github.com/m3rciful/shopbot/internal/shop"

	tele "gopkg.in/telebot.v4"
)

// Reply keyboard labels. Each one is registered as a command alias.
const (
	LabelCatalog  = "🛍 Catalog"
	LabelCart     = "🛒 Cart"
	LabelMyOrders = "📦 My orders"
	LabelProfile  = "👤 Profile"
	LabelCheckout = "💳 Checkout"
	LabelSupport  = "📞 Support"

	LabelAddProduct   = "➕ Add product"
	LabelEditProducts = "✏️ Edit products"
	LabelStatistics   = "📊 Statistics"
	LabelOrders       = "📦 Orders"
	LabelUsers        = "👥 Users"
	LabelBroadcast    = "📢 Broadcast"
	LabelMainMenu     = "🏠 Main menu"

	DefaultCancelLabel = "❌ Cancel"
)

const labelBack = "🏠 « Back"

func mainMenu(admin bool) *tele.ReplyMarkup {
	if admin {
		return keyboard.ReplyButtons(
			[]string{LabelAddProduct, LabelEditProducts},
			[]string{LabelStatistics, LabelOrders},
			[]string{LabelUsers, LabelBroadcast},
			[]string{LabelMainMenu},
		)
	}
	return keyboard.ReplyButtons(
		[]string{LabelCatalog, LabelCart},
		[]string{LabelMyOrders, LabelProfile},
		[]string{LabelCheckout, LabelSupport},
	)
}

func cancelMenu(label string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{label})
}

// categoryKeyboard lists categories whose payload fits the callback limit.
func categoryKeyboard(categories []string) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(categories)+2)
	for _, c := range categories {
		a := Action{Kind: ActCategory, Category: c}
		if !a.Fits() {
			continue
		}
		rows = append(rows, []keyboard.InlineBtn{keyboard.Button("📁 "+c, a.Data())})
	}
	rows = append(rows,
		[]keyboard.InlineBtn{keyboard.Button("🗂 All products", string(ActAllProducts))},
		[]keyboard.InlineBtn{keyboard.Button(labelBack, string(ActBackToMain))},
	)
	return keyboard.InlineButtonsRows(rows...)
}

func productKeyboard(productID int64, inCart int) *tele.ReplyMarkup {
	rows := [][]keyboard.InlineBtn{
		{keyboard.Button("🛒 Add to cart", idData(ActAddToCart, productID))},
	}
	if inCart > 0 {
		rows = append(rows, []keyboard.InlineBtn{
			keyboard.Button(fmt.Sprintf("✅ In cart: %d", inCart), string(ActAlreadyInCart)),
		})
	}
	rows = append(rows, []keyboard.InlineBtn{keyboard.Button("🏠 « Catalog", string(ActBackToCatalog))})
	return keyboard.InlineButtonsRows(rows...)
}

func cartKeyboard(cart shop.Cart) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(cart)+3)
	for _, l := range cart {
		rows = append(rows, []keyboard.InlineBtn{
			keyboard.Button("❌ "+l.Name, idData(ActRemoveFromCart, l.ProductID)),
		})
	}
	rows = append(rows,
		[]keyboard.InlineBtn{keyboard.Button("✅ Checkout", string(ActCheckout))},
		[]keyboard.InlineBtn{keyboard.Button("🗑 Clear cart", string(ActClearCart))},
		[]keyboard.InlineBtn{keyboard.Button(labelBack, string(ActBackToMain))},
	)
	return keyboard.InlineButtonsRows(rows...)
}

func checkoutKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons(
		keyboard.Button("💳 Pay", string(ActPayOrder)),
		keyboard.Button("🏠 « Cart", string(ActBackToCart)),
	)
}

func paymentKeyboard(url string) *tele.ReplyMarkup {
	return keyboard.InlineButtons(
		keyboard.Link("💳 Go to payment", url),
		keyboard.Button(labelBack, string(ActBackToMain)),
	)
}

func ordersKeyboard(orders []shop.Order, back Kind) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(orders)+1)
	for _, o := range orders {
		btns = append(btns, keyboard.Button(fmt.Sprintf("🧾 #%d", o.ID), idData(ActOrder, o.ID)))
	}
	rows := keyboard.Chunk(btns, 3)
	if back != "" {
		rows = append(rows, []keyboard.InlineBtn{keyboard.Button(labelBack, string(back))})
	}
	return keyboard.InlineButtonsRows(rows...)
}

func adminOrdersKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons(
		keyboard.Button("📋 All orders", string(ActAdminAllOrders)),
		keyboard.Button(labelBack, string(ActBackToAdmin)),
	)
}

func editProductsKeyboard(products []shop.Product, currency string) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(products)+1)
	for _, p := range products {
		label := fmt.Sprintf("✏️ %s (%s)", p.Name, format.Money(p.Price, currency))
		btns = append(btns, keyboard.Button(label, idData(ActEditProduct, p.ID)))
	}
	btns = append(btns, keyboard.Button(labelBack, string(ActBackToAdmin)))
	return keyboard.InlineButtons(btns...)
}

var fieldLabels = map[session.Field]string{
	session.FieldName:        "📝 Name",
	session.FieldDescription: "📝 Description",
	session.FieldPrice:       "💰 Price",
	session.FieldCategory:    "📁 Category",
	session.FieldImage:       "🖼 Image",
}

func productEditKeyboard(productID int64) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(session.Fields))
	for _, f := range session.Fields {
		btns = append(btns, keyboard.Button(fieldLabels[f], editFieldData(productID, f)))
	}
	rows := keyboard.Chunk(btns, 2)
	rows = append(rows,
		[]keyboard.InlineBtn{keyboard.Button("🗑 Delete product", idData(ActDeleteProduct, productID))},
		[]keyboard.InlineBtn{keyboard.Button("🏠 « Products", string(ActAdminEditMenu))},
	)
	return keyboard.InlineButtonsRows(rows...)
}

func confirmDeleteKeyboard(productID int64) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			keyboard.Button("✅ Yes, delete", idData(ActConfirmDelete, productID)),
			keyboard.Button("❌ No", idData(ActEditProduct, productID)),
		},
	)
}
