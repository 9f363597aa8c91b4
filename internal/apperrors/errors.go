// Package apperrors defines the error kinds returned by services and how they
// map onto HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindStorage Kind = iota
	KindValidation
	KindNotFound
	KindInsufficientBalance
	KindAuth
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindInsufficientBalance:
		return "InsufficientBalanceError"
	case KindAuth:
		return "AuthError"
	case KindConflict:
		return "ConflictError"
	default:
		return "StorageError"
	}
}

// HTTPStatus returns the status code a handler should answer with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInsufficientBalance:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// KindOf returns the kind of err, defaulting to KindStorage for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InsufficientBalance(err error) error {
	return &Error{Kind: KindInsufficientBalance, Message: "Insufficient balance", Err: err}
}

func Auth(msg string, err error) error {
	return &Error{Kind: KindAuth, Message: msg, Err: err}
}

func Conflict(msg string, err error) error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

// Storage wraps a failure of the underlying store. The message is not shown to clients.
func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Message: op + ": " + errString(err), Err: err}
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
