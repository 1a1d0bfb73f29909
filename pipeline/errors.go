package pipeline

import (
	"fmt"
	"net/http"

	"github.com/drblury/restweaver/contract"
	"github.com/drblury/restweaver/schema"
)

// Kind classifies pipeline failures.
type Kind int

// Failure kinds.
const (
	KindMethodNotAllowed Kind = iota + 1
	KindUnsupportedMediaType
	KindInvalidBody
	KindInvalidQuery
	KindInvalidHeaders
	KindHandlerFault
)

func (k Kind) String() string {
	switch k {
	case KindMethodNotAllowed:
		return "MethodNotAllowed"
	case KindUnsupportedMediaType:
		return "UnsupportedMediaType"
	case KindInvalidBody:
		return "InvalidBody"
	case KindInvalidQuery:
		return "InvalidQuery"
	case KindInvalidHeaders:
		return "InvalidHeaders"
	case KindHandlerFault:
		return "HandlerFault"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Status returns the HTTP status answered for k.
func (k Kind) Status() int {
	switch k {
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case KindInvalidBody, KindInvalidQuery, KindInvalidHeaders:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the fixed message sent to callers for k.
func (k Kind) Message() string {
	switch k {
	case KindMethodNotAllowed:
		return contract.ErrMessageMethodNotAllowed
	case KindUnsupportedMediaType:
		return contract.ErrMessageInvalidMediaType
	case KindInvalidBody:
		return contract.ErrMessageInvalidBody
	case KindInvalidQuery:
		return contract.ErrMessageInvalidQuery
	case KindInvalidHeaders:
		return contract.ErrMessageInvalidHeaders
	default:
		return contract.ErrMessageUnexpected
	}
}

// Error is a failure resolved by the pipeline into an error response.
type Error struct {
	Kind   Kind
	Issues []schema.Issue
	// Allow lists the declared methods for KindMethodNotAllowed.
	Allow string
	// Cause is logged but never sent to the caller.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Status returns the HTTP status of the failure.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
