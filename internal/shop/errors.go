package shop

import (
	"context"
	"errors"
	"fmt"
)

type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() string  { return e.code }

// Sentinel kinds. Typed errors below match them through errors.Is.
var (
	ErrInvalidInput     error = &codedError{code: "VALIDATION", msg: "invalid input"}
	ErrNotFound         error = &codedError{code: "NOT_FOUND", msg: "not found"}
	ErrEmptyCart        error = &codedError{code: "EMPTY_CART", msg: "cart is empty"}
	ErrPermission       error = &codedError{code: "PERMISSION", msg: "permission denied"}
	ErrStoreUnavailable error = &codedError{code: "STORE_UNAVAILABLE", msg: "store unavailable"}
	ErrDelivery         error = &codedError{code: "DELIVERY", msg: "delivery failed"}
)

// ValidationError reports malformed user input. The pending session is kept.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }
func (e *ValidationError) Code() string         { return "VALIDATION" }

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a missing or inactive entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
func (e *NotFoundError) Code() string         { return "NOT_FOUND" }

// NotFound builds a NotFoundError.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// StoreError wraps a failure of the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string        { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error        { return e.Err }
func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }
func (e *StoreError) Code() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return "STORE_TIMEOUT"
	}
	return "STORE_UNAVAILABLE"
}

// DeliveryError records a failed broadcast delivery to one recipient.
type DeliveryError struct {
	UserID int64
	Err    error
}

func (e *DeliveryError) Error() string        { return fmt.Sprintf("deliver to %d: %v", e.UserID, e.Err) }
func (e *DeliveryError) Unwrap() error        { return e.Err }
func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }
func (e *DeliveryError) Code() string         { return "DELIVERY" }

// storeErr passes domain errors through and wraps everything else as a StoreError.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, domain := range []error{ErrNotFound, ErrEmptyCart, ErrInvalidInput, ErrPermission} {
		if errors.Is(err, domain) {
			return err
		}
	}
	return &StoreError{Op: op, Err: err}
}
