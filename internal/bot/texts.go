package bot

import (
	"fmt"
	"strings"

	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/internal/session"
	"github.com/m3rciful/shopbot/internal/shop"
)

const timeLayout = "2006-01-02 15:04"

// renderer builds the HTML message bodies. User supplied values are escaped.
type renderer struct {
	shopName string
	currency string
	support  string
}

func (r renderer) money(v int64) string { return format.Money(v, r.currency) }

func (r renderer) welcome(u shop.User, admin bool) string {
	if admin {
		return fmt.Sprintf("👑 Welcome to the <b>%s</b> admin panel!", format.HTML(r.shopName))
	}
	return fmt.Sprintf("🌟 Welcome to <b>%s</b>, %s!\nPick a section from the menu below.",
		format.HTML(r.shopName), format.HTML(u.DisplayName()))
}

func (r renderer) product(p shop.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✨ <b>%s</b>\n", format.HTML(p.Name))
	fmt.Fprintf(&b, "💰 Price: %s\n", r.money(p.Price))
	fmt.Fprintf(&b, "📁 Category: %s", format.HTML(p.Category))
	if p.Description != "" {
		fmt.Fprintf(&b, "\n📝 %s", format.HTML(p.Description))
	}
	return b.String()
}

func (r renderer) adminProduct(p shop.Product) string {
	image := "none"
	if p.ImagePath != "" {
		image = format.HTML(p.ImagePath)
	}
	return fmt.Sprintf("🛠 Product #%d\n\n%s\n🖼 Image: %s", p.ID, r.product(p), image)
}

func (r renderer) cart(c shop.Cart) string {
	var b strings.Builder
	b.WriteString("🛒 <b>Your cart:</b>\n\n")
	for _, l := range c {
		fmt.Fprintf(&b, "📦 %s × %d = %s\n", format.HTML(l.Name), l.Quantity, r.money(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\n<b>Total: %s</b>", r.money(c.Total()))
	return b.String()
}

func (r renderer) checkout(c shop.Cart) string {
	return fmt.Sprintf("📦 <b>Checkout</b>\n\nItems: %d\nTo pay: <b>%s</b>\n\nPrices are fixed when you press Pay.",
		len(c), r.money(c.Total()))
}

func (r renderer) payment(res shop.CheckoutResult) string {
	return fmt.Sprintf("💳 <b>Order #%d</b>\n\n💰 Amount due: %s\n\nUse the button below to pay.",
		res.Order.ID, r.money(res.Order.TotalAmount))
}

var statusLabels = map[shop.OrderStatus]string{
	shop.StatusPending:   "⏳ pending",
	shop.StatusPaid:      "✅ paid",
	shop.StatusCancelled: "❌ cancelled",
}

func statusLabel(s shop.OrderStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return format.HTML(string(s))
}

func (r renderer) orders(title string, orders []shop.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 <b>%s</b>\n\n", title)
	for _, o := range orders {
		fmt.Fprintf(&b, "🆔 Order #%d\n💰 %s\n📅 %s\n📊 %s\n\n",
			o.ID, r.money(o.TotalAmount), o.CreatedAt.Format(timeLayout), statusLabel(o.Status))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r renderer) orderDetails(o shop.Order, items []shop.OrderItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 <b>Order #%d</b>\n📅 %s\n📊 %s\n\n", o.ID, o.CreatedAt.Format(timeLayout), statusLabel(o.Status))
	for _, it := range items {
		fmt.Fprintf(&b, "• %s × %d × %s = %s\n",
			format.HTML(it.Name), it.Quantity, r.money(it.Price), r.money(it.Subtotal()))
	}
	fmt.Fprintf(&b, "\n<b>Total: %s</b>", r.money(o.TotalAmount))
	return b.String()
}

func (r renderer) profile(u shop.User) string {
	var b strings.Builder
	b.WriteString("👤 <b>Your profile:</b>\n")
	fmt.Fprintf(&b, "🆔 ID: %d\n", u.ID)
	if u.FirstName != "" {
		fmt.Fprintf(&b, "👤 First name: %s\n", format.HTML(u.FirstName))
	}
	if u.LastName != "" {
		fmt.Fprintf(&b, "👥 Last name: %s\n", format.HTML(u.LastName))
	}
	if u.Username != "" {
		fmt.Fprintf(&b, "🏷 Username: @%s\n", format.HTML(u.Username))
	}
	if u.Phone != "" {
		fmt.Fprintf(&b, "📱 Phone: %s\n", format.HTML(u.Phone))
	}
	if u.Address != "" {
		fmt.Fprintf(&b, "🏠 Address: %s\n", format.HTML(u.Address))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r renderer) supportText() string {
	if r.support != "" {
		return format.HTML(r.support)
	}
	return fmt.Sprintf("📞 <b>%s support</b>\n\n"+
		"Questions about an order? Message the administrator with your order number "+
		"and a short description of the problem.\n\n⏰ We reply within 24 hours.",
		format.HTML(r.shopName))
}

func (r renderer) stats(st shop.Stats) string {
	return fmt.Sprintf("📊 <b>Shop statistics</b>\n\n👥 Users: %d\n📦 Orders: %d\n💰 Revenue: %s",
		st.Users, st.Orders, r.money(st.Revenue))
}

func (r renderer) users(users []shop.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 <b>Latest users (%d):</b>\n\n", len(users))
	for _, u := range users {
		fmt.Fprintf(&b, "🆔 %d · %s", u.ID, format.HTML(u.DisplayName()))
		if u.Username != "" && u.FirstName != "" {
			fmt.Fprintf(&b, " (@%s)", format.HTML(u.Username))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r renderer) broadcastReport(rep *shop.BroadcastReport) string {
	return fmt.Sprintf("✅ Broadcast finished!\nDelivered: %d\nFailed: %d", rep.Sent, rep.Failed)
}

const addProductPrompt = "➕ <b>New product</b>\n\n" +
	"Send the fields separated by <code>|</code>:\n" +
	"<code>name|description|price|category|image</code>\n" +
	"The image is optional, the price is a whole number.\n\n" +
	"Example:\n<code>Figure|A cool figure|1999|Figures</code>"

const broadcastPrompt = "📢 <b>Broadcast</b>\n\nSend the message to deliver to every user."

func (r renderer) fieldPrompt(p shop.Product, f session.Field) string {
	var hint string
	switch f {
	case session.FieldPrice:
		hint = "Send a whole number, for example <code>2500</code>."
	case session.FieldImage:
		hint = "Send an image URL or path, or <code>" + shop.ClearImage + "</code> to remove the image."
	default:
		hint = "Send the new value."
	}
	return fmt.Sprintf("✏️ Editing the %s of <b>%s</b>\n\n%s", fieldNames[f], format.HTML(p.Name), hint)
}

var fieldNames = map[session.Field]string{
	session.FieldName:        "name",
	session.FieldDescription: "description",
	session.FieldPrice:       "price",
	session.FieldCategory:    "category",
	session.FieldImage:       "image",
}
