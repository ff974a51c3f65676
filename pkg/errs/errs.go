// Package errs implements a closed error taxonomy: a fixed set of kinds
// rather than type names, so RPC/CLI collaborators can map a kind onto
// their own status codes without string matching.
package errs

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories a caller can branch on.
type Kind int

const (
	// KindUnknown is never produced by this package; it exists so the
	// zero value of Kind is visibly not a real kind.
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindInvalidNodeType
	KindInvariantViolation
	KindInvalidTransition
	KindIO
	KindCorruption
	KindTraversalTruncated
	KindCancelled
	KindClosed
	// KindAlreadyExists distinguishes a duplicate-id conflict (e.g.
	// re-creating a session with an explicit id already in use) from a
	// genuine invariant break.
	KindAlreadyExists
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "Validation"
	case KindInvalidNodeType:
		return "InvalidNodeType"
	case KindInvariantViolation:
		return "InvariantViolation"
	case KindInvalidTransition:
		return "InvalidTransition"
	case KindIO:
		return "Io"
	case KindCorruption:
		return "Corruption"
	case KindTraversalTruncated:
		return "TraversalTruncated"
	case KindCancelled:
		return "Cancelled"
	case KindClosed:
		return "Closed"
	case KindAlreadyExists:
		return "AlreadyExists"
	default:
		return "Unknown"
	}
}

// Recoverable reports whether a caller can reasonably retry or work
// around an error of this kind.
func (k Kind) Recoverable() bool {
	switch k {
	case KindInvariantViolation, KindCorruption, KindClosed:
		return false
	default:
		return true
	}
}

// Error wraps an underlying cause with a Kind and the operation name that
// produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a *Error for the given kind and operation.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Of extracts the Kind from err if it (or something it wraps) is an
// *Error; returns KindUnknown otherwise.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err's kind equals kind.
func Is(err error, kind Kind) bool {
	return Of(err) == kind
}

func NotFound(op string, cause error) *Error     { return New(KindNotFound, op, cause) }
func Validation(op string, cause error) *Error   { return New(KindValidation, op, cause) }
func InvalidNodeType(op string, cause error) *Error {
	return New(KindInvalidNodeType, op, cause)
}
func InvariantViolation(op string, cause error) *Error {
	return New(KindInvariantViolation, op, cause)
}
func InvalidTransition(op string, cause error) *Error {
	return New(KindInvalidTransition, op, cause)
}
func IO(op string, cause error) *Error                 { return New(KindIO, op, cause) }
func Corruption(op string, cause error) *Error         { return New(KindCorruption, op, cause) }
func TraversalTruncated(op string, cause error) *Error { return New(KindTraversalTruncated, op, cause) }
func Cancelled(op string, cause error) *Error          { return New(KindCancelled, op, cause) }
func Closed(op string, cause error) *Error             { return New(KindClosed, op, cause) }
func AlreadyExists(op string, cause error) *Error      { return New(KindAlreadyExists, op, cause) }
