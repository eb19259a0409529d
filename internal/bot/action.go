package bot

import (
	"errors"
	"strconv"
	"strings"

	"github.com/m3rciful/shopbot/internal/session"
)

// MaxCallbackData is the Telegram limit for inline button payloads, in bytes.
const MaxCallbackData = 64

// ErrUnknownAction is returned for payloads outside the button grammar.
var ErrUnknownAction = errors.New("unknown action")

// Kind identifies a button action. The string form is also the registry key.
type Kind string

const (
	ActAddToCart      Kind = "add_to_cart"
	ActRemoveFromCart Kind = "remove_from_cart"
	ActCategory       Kind = "cat"
	ActEditProduct    Kind = "edit_product"
	ActEditField      Kind = "edit_field"
	ActDeleteProduct  Kind = "delete_product"
	ActConfirmDelete  Kind = "confirm_delete"
	ActOrder          Kind = "order"

	ActBackToMain     Kind = "back_to_main"
	ActBackToCatalog  Kind = "back_to_catalog"
	ActAllProducts    Kind = "all_products"
	ActCheckout       Kind = "checkout"
	ActPayOrder       Kind = "pay_order"
	ActClearCart      Kind = "clear_cart"
	ActBackToCart     Kind = "back_to_cart"
	ActBackToAdmin    Kind = "back_to_admin"
	ActAdminEditMenu  Kind = "admin_edit_menu"
	ActAdminAllOrders Kind = "admin_all_orders"
	ActAlreadyInCart  Kind = "already_in_cart"
)

var staticKinds = map[string]Kind{
	string(ActBackToMain):     ActBackToMain,
	string(ActBackToCatalog):  ActBackToCatalog,
	string(ActAllProducts):    ActAllProducts,
	string(ActCheckout):       ActCheckout,
	string(ActPayOrder):       ActPayOrder,
	string(ActClearCart):      ActClearCart,
	string(ActBackToCart):     ActBackToCart,
	string(ActBackToAdmin):    ActBackToAdmin,
	string(ActAdminEditMenu):  ActAdminEditMenu,
	string(ActAdminAllOrders): ActAdminAllOrders,
	string(ActAlreadyInCart):  ActAlreadyInCart,
}

// idPrefixes are tried in order; longer prefixes sharing a stem come first.
var idPrefixes = []struct {
	prefix string
	kind   Kind
}{
	{"add_to_cart_", ActAddToCart},
	{"remove_from_cart_", ActRemoveFromCart},
	{"edit_product_", ActEditProduct},
	{"delete_product_", ActDeleteProduct},
	{"confirm_delete_", ActConfirmDelete},
	{"order_", ActOrder},
}

// Action is a parsed button payload.
type Action struct {
	Kind     Kind
	ID       int64
	Field    session.Field
	Category string
}

// ParseAction decodes a callback payload. Anything outside the grammar fails
// with ErrUnknownAction.
func ParseAction(data string) (Action, error) {
	if data == "" || len(data) > MaxCallbackData {
		return Action{}, ErrUnknownAction
	}
	if k, ok := staticKinds[data]; ok {
		return Action{Kind: k}, nil
	}
	for _, p := range idPrefixes {
		if rest, ok := strings.CutPrefix(data, p.prefix); ok {
			id, ok := parseID(rest)
			if !ok {
				return Action{}, ErrUnknownAction
			}
			return Action{Kind: p.kind, ID: id}, nil
		}
	}
	if rest, ok := strings.CutPrefix(data, "edit_"); ok {
		name, idPart, found := strings.Cut(rest, "_")
		field, known := session.ParseField(name)
		id, valid := parseID(idPart)
		if !found || !known || string(field) != name || !valid {
			return Action{}, ErrUnknownAction
		}
		return Action{Kind: ActEditField, ID: id, Field: field}, nil
	}
	if rest, ok := strings.CutPrefix(data, "cat_"); ok && strings.TrimSpace(rest) != "" {
		return Action{Kind: ActCategory, Category: rest}, nil
	}
	return Action{}, ErrUnknownAction
}

// parseID accepts positive decimal ids without sign or leading zeros.
func parseID(s string) (int64, bool) {
	if s == "" || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil
}

// Data encodes the action as a callback payload. It is the inverse of ParseAction.
func (a Action) Data() string {
	switch a.Kind {
	case ActAddToCart, ActRemoveFromCart, ActEditProduct, ActDeleteProduct, ActConfirmDelete, ActOrder:
		return string(a.Kind) + "_" + strconv.FormatInt(a.ID, 10)
	case ActEditField:
		return "edit_" + string(a.Field) + "_" + strconv.FormatInt(a.ID, 10)
	case ActCategory:
		return "cat_" + a.Category
	default:
		return string(a.Kind)
	}
}

// Fits reports whether the encoded payload is within the Telegram limit.
func (a Action) Fits() bool {
	return len(a.Data()) <= MaxCallbackData
}

func idData(k Kind, id int64) string { return Action{Kind: k, ID: id}.Data() }

func editFieldData(id int64, f session.Field) string {
	return Action{Kind: ActEditField, ID: id, Field: f}.Data()
}
