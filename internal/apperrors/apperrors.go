// Package apperrors classifies the failures the order workflow can surface.
// Handlers and message consumers decide how to report an error from its Kind
// instead of matching on message text.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a workflow failure.
type Kind int

const (
	KindUnknown        Kind = iota
	KindValidation          // bad or unknown product ids (client)
	KindPricing             // requested item not resolvable against the catalog (client)
	KindNotFound            // unknown order id (client)
	KindNoOpTransition      // status update requested the current status (client)
	KindPersistence         // storage-layer failure (server, possibly transient)
	KindPaymentRequest      // remote payment-session call failed (client)
)

// ClientError reports whether the kind is caused by the caller, as opposed to
// a failure of this service or its storage.
func (k Kind) ClientError() bool {
	switch k {
	case KindValidation, KindPricing, KindNotFound, KindNoOpTransition, KindPaymentRequest:
		return true
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPricing:
		return "pricing"
	case KindNotFound:
		return "not_found"
	case KindNoOpTransition:
		return "no_op_transition"
	case KindPersistence:
		return "persistence"
	case KindPaymentRequest:
		return "payment_request"
	}
	return "unknown"
}

// Error is a classified workflow error.
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

// New builds a classified error with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error, keeping it reachable via errors.Unwrap.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the classification of err, or KindUnknown if err carries
// none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified with the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
