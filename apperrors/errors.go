package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error category surfaced to API clients.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindCapacityExceeded  Kind = "capacity_exceeded"
	KindAliasExhausted    Kind = "alias_exhausted"
	KindInvalidTransition Kind = "invalid_state_transition"
	KindPendingOrders     Kind = "pending_orders_exist"
	KindValidation        Kind = "validation_error"
	KindProviderError     Kind = "provider_error"
	KindProviderTimeout   Kind = "provider_timeout"
	KindInternal          Kind = "internal"
)

// Error carries a kind alongside the message. All service errors are either
// an *Error or wrap one with %w so the kind survives layer crossings.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound builds the standard not-found error for an entity.
func NotFound(entity string) *Error {
	return New(KindNotFound, "%s not found", entity)
}

// KindOf extracts the kind from err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to its API-facing status code. State conflicts
// are 409, provider failures are payment-required or gateway errors.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindCapacityExceeded, KindAliasExhausted, KindInvalidTransition, KindPendingOrders:
		return http.StatusConflict
	case KindProviderError:
		return http.StatusPaymentRequired
	case KindProviderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
