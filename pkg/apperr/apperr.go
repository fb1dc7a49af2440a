// Package apperr holds the error kinds shared by services and transport.
//
// A kind is a sentinel error. Services return *Error values that carry a
// client-facing message and unwrap to their kind, so callers branch with
// errors.Is(err, apperr.ErrNotFound) and the HTTP layer picks a status code
// from the kind alone.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrBusinessRule      = errors.New("business rule violation")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPayment           = errors.New("payment error")
	ErrValidation        = errors.New("validation")
)

type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(ErrNotFound, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(ErrUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(ErrForbidden, format, args...)
}

func BusinessRule(format string, args ...any) *Error {
	return New(ErrBusinessRule, format, args...)
}

func InsufficientStock(format string, args ...any) *Error {
	return New(ErrInsufficientStock, format, args...)
}

func Payment(format string, args ...any) *Error {
	return New(ErrPayment, format, args...)
}

func Validation(format string, args ...any) *Error {
	return New(ErrValidation, format, args...)
}

// Message returns the client-facing text of err. Errors without a kind are
// internal and their text is not exposed.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}

// KindOf reports the kind of err, or nil when err carries none.
func KindOf(err error) error {
	for _, k := range []error{
		ErrNotFound, ErrUnauthorized, ErrForbidden, ErrBusinessRule,
		ErrInsufficientStock, ErrPayment, ErrValidation,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
