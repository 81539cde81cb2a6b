package ir

import (
	"errors"
	"fmt"
)

// EditErrorCode classifies a rejected graph edit.
type EditErrorCode string

const (
	ErrLiveUses      EditErrorCode = "live_uses"
	ErrAttached      EditErrorCode = "already_attached"
	ErrBadAnchor     EditErrorCode = "bad_anchor"
	ErrArity         EditErrorCode = "arity_mismatch"
	ErrErased        EditErrorCode = "erased"
	ErrNotTerminated EditErrorCode = "not_terminated"
)

// EditError reports a violated editing-primitive contract.
type EditError struct {
	Code    EditErrorCode
	Op      OpID
	Message string
}

func (e *EditError) Error() string {
	return fmt.Sprintf("ir: %s (op %d): %s", e.Code, e.Op, e.Message)
}

func editErr(code EditErrorCode, op OpID, format string, args ...any) error {
	return &EditError{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// IsEditError reports whether err is an EditError with the given code.
func IsEditError(err error, code EditErrorCode) bool {
	var ee *EditError
	return errors.As(err, &ee) && ee.Code == code
}
