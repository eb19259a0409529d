package bot

import (
	"errors"

	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/router"
	"github.com/m3rciful/shopbot/internal/shop"

	tele "gopkg.in/telebot.v4"
)

// Register adds every command and callback to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		cmd  tg.Command
	}{
		{"/start", tg.Command{Handler: h.Start, Description: "Main menu", Aliases: []string{LabelMainMenu}}},
		{"/catalog", tg.Command{Handler: h.Catalog, Description: "Browse the catalog", Aliases: []string{LabelCatalog}}},
		{"/cart", tg.Command{Handler: h.Cart, Description: "Your cart", Aliases: []string{LabelCart}}},
		{"/checkout", tg.Command{Handler: h.Checkout, Description: "Place an order", Aliases: []string{LabelCheckout}}},
		{"/orders", tg.Command{Handler: h.MyOrders, Description: "Your orders", Aliases: []string{LabelMyOrders}}},
		{"/profile", tg.Command{Handler: h.Profile, Description: "Your profile", Aliases: []string{LabelProfile}}},
		{"/support", tg.Command{Handler: h.Support, Description: "Contact support", Aliases: []string{LabelSupport}}},
		{"/cancel", tg.Command{Handler: h.Cancel, Description: "Cancel the current action", Aliases: []string{h.cfg.CancelText}}},

		{"/admin", tg.Command{Handler: h.Admin, Description: "Admin panel", AdminOnly: true}},
		{"/addproduct", tg.Command{Handler: h.AddProduct, Description: "Add a product", AdminOnly: true, Aliases: []string{LabelAddProduct}}},
		{"/editproducts", tg.Command{Handler: h.EditProducts, Description: "Edit products", AdminOnly: true, Aliases: []string{LabelEditProducts}}},
		{"/stats", tg.Command{Handler: h.Stats, Description: "Statistics", AdminOnly: true, Aliases: []string{LabelStatistics}}},
		{"/recentorders", tg.Command{Handler: h.Orders, Description: "Latest orders", AdminOnly: true, Aliases: []string{LabelOrders}}},
		{"/allorders", tg.Command{Handler: h.AllOrders, Description: "All orders", AdminOnly: true}},
		{"/users", tg.Command{Handler: h.Users, Description: "Latest users", AdminOnly: true, Aliases: []string{LabelUsers}}},
		{"/broadcast", tg.Command{Handler: h.Broadcast, Description: "Message every user", AdminOnly: true, Aliases: []string{LabelBroadcast}}},
	}

	var errs []error
	for _, c := range cmds {
		errs = append(errs, reg.RegisterCommand(c.name, c.cmd))
	}

	callbacks := map[Kind]tele.HandlerFunc{
		ActAddToCart:      h.onAddToCart,
		ActRemoveFromCart: h.onRemoveFromCart,
		ActCategory:       h.onCategory,
		ActOrder:          h.onOrder,
		ActBackToMain:     h.onBackToMain,
		ActBackToCatalog:  h.Catalog,
		ActAllProducts:    h.onAllProducts,
		ActCheckout:       h.Checkout,
		ActPayOrder:       h.onPay,
		ActClearCart:      h.onClearCart,
		ActBackToCart:     h.Cart,
		ActAlreadyInCart:  h.onAlreadyInCart,

		ActEditProduct:    h.onEditProduct,
		ActEditField:      h.onEditField,
		ActDeleteProduct:  h.onDeleteProduct,
		ActConfirmDelete:  h.onConfirmDelete,
		ActBackToAdmin:    h.Admin,
		ActAdminEditMenu:  h.EditProducts,
		ActAdminAllOrders: h.AllOrders,
	}
	for kind, fn := range callbacks {
		errs = append(errs, reg.RegisterCallback(string(kind), fn))
	}

	reg.SetCallbackNotFound(h.unknownCallback)
	reg.SetTextFallback(h.UnknownText)
	return errors.Join(errs...)
}

// CallbackKey routes a button payload to its action kind; payloads outside
// the grammar map to "" and reach the not-found handler.
func CallbackKey(cb *tele.Callback) string {
	a, err := ParseAction(cb.Data)
	if err != nil {
		return ""
	}
	return string(a.Kind)
}

// Routes builds the command, text and callback routes over reg.
func (h *Handlers) Routes(reg *tg.Registry) []tg.Route {
	cmdOpts := router.CommandRouteOptions{
		IsAdmin:       h.svc.IsAdmin,
		OnAdminReject: h.accessDenied,
	}
	routes := router.CommandRoutes(reg, cmdOpts)
	routes = append(routes, router.TextRoutes(h, reg, router.TextOptions{
		CommandOptions: cmdOpts,
		UnknownText:    h.UnknownText,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		Key:      CallbackKey,
		NotFound: h.unknownCallback,
	}))
	return routes
}

func (h *Handlers) accessDenied(c tele.Context) error {
	return h.show(c, userMessage(shop.ErrPermission), nil)
}
