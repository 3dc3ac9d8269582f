package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies queue operation failures so transports can map them
// onto their own status codes
type ErrorKind string

// Queue operation failure classifications
const (
	KindValidation      ErrorKind = "VALIDATION"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindDuplicatePlate  ErrorKind = "DUPLICATE_PLATE"
	KindStateConflict   ErrorKind = "STATE_CONFLICT"
	KindForbidden       ErrorKind = "FORBIDDEN"
	KindUnauthenticated ErrorKind = "UNAUTHENTICATED"
	KindTimeout         ErrorKind = "TIMEOUT"
	KindInternal        ErrorKind = "INTERNAL"
)

// Error is a classified queue operation failure. ExistingTurnNumber is only
// populated for duplicate plate rejections so callers can surface the turn
// already holding the plate.
type Error struct {
	Kind               ErrorKind
	ExistingTurnNumber int64
	message            string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.message
}

// NewError returns a classified queue error
func NewError(kind ErrorKind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, message: fmt.Sprintf(format, a...)}
}

// NewDuplicatePlateError returns a duplicate plate rejection carrying the
// turn number already active for the plate
func NewDuplicatePlateError(plate string, existing int64) *Error {
	return &Error{
		Kind:               KindDuplicatePlate,
		ExistingTurnNumber: existing,
		message:            fmt.Sprintf("plate %s already has an active turn #%d", plate, existing),
	}
}

// KindOf extracts the classification from err, mapping context cancellation
// onto KindTimeout and everything unclassified onto KindInternal
func KindOf(err error) ErrorKind {
	var qErr *Error
	if errors.As(err, &qErr) {
		return qErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	return KindInternal
}
