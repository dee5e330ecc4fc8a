// Package apperror is the error taxonomy shared by the cart, order and
// subscription services. Every error names the offending field or product.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

// Error is a classified service error.
type Error struct {
	Kind    Kind
	Message string
	// Field names the offending input field, if any.
	Field string
	// ProductID and Shortfall are set for stock conflicts.
	ProductID uint
	Requested int
	Available int
	Shortfall int
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsInsufficientStock reports whether the conflict is a stock shortfall.
func (e *Error) IsInsufficientStock() bool {
	return e.Kind == KindConflict && e.ProductID != 0 && e.Shortfall > 0
}

func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Field: entity, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStock is the conflict raised when requested exceeds available.
func InsufficientStock(productID uint, requested, available int) *Error {
	if available < 0 {
		available = 0
	}
	return &Error{
		Kind:      KindConflict,
		Field:     "quantity",
		ProductID: productID,
		Requested: requested,
		Available: available,
		Shortfall: requested - available,
		Message:   fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", productID, requested, available),
	}
}

// Internal wraps a storage or transport failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf classifies err. Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Wrap passes classified errors through and wraps everything else as internal.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return Internal(err)
}
