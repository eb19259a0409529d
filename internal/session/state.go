// Package session holds the per-user conversational state of admin flows.
package session

import (
	"fmt"
	"strings"
)

// Kind enumerates the session variants.
type Kind int

const (
	Idle Kind = iota
	AwaitingProductFields
	AwaitingBroadcastText
	AwaitingFieldEdit
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case AwaitingProductFields:
		return "awaiting_product_fields"
	case AwaitingBroadcastText:
		return "awaiting_broadcast_text"
	case AwaitingFieldEdit:
		return "awaiting_field_edit"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Field names an editable product attribute.
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "desc"
	FieldPrice       Field = "price"
	FieldCategory    Field = "category"
	FieldImage       Field = "image"
)

// Fields lists editable fields in menu order.
var Fields = []Field{FieldName, FieldDescription, FieldPrice, FieldCategory, FieldImage}

// ParseField resolves a field token as used in button payloads.
func ParseField(s string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Fields {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// State is the tagged session variant. ProductID and Field are meaningful only
// for AwaitingFieldEdit; the constructors keep the other variants zeroed.
type State struct {
	Kind      Kind
	ProductID int64
	Field     Field
}

// IdleState is the zero state; an absent store entry means the same.
func IdleState() State { return State{} }

// ProductFields waits for the pipe-delimited product description.
func ProductFields() State { return State{Kind: AwaitingProductFields} }

// BroadcastText waits for the text to send to every user.
func BroadcastText() State { return State{Kind: AwaitingBroadcastText} }

// FieldEdit waits for a new value of field on product id.
func FieldEdit(productID int64, field Field) State {
	return State{Kind: AwaitingFieldEdit, ProductID: productID, Field: field}
}

// Pending reports whether the state awaits more input.
func (s State) Pending() bool { return s.Kind != Idle }

func (s State) String() string {
	if s.Kind == AwaitingFieldEdit {
		return fmt.Sprintf("%s(%d,%s)", s.Kind, s.ProductID, s.Field)
	}
	return s.Kind.String()
}
