package sema

import (
	"errors"
	"fmt"

	"github.com/roach88/rulec/internal/ir"
)

// Semantic error codes (E201-E209).
const (
	ErrDanglingReference   = "E201" // such/it with no matching prior subject
	ErrTypeMismatch        = "E202" // operand type violates its binding site
	ErrUnresolvedType      = "E203" // a value is still Unknown after analysis
	ErrUnbindableReference = "E204" // reference can be neither bound nor captured
	ErrUnsupported         = "E205" // construct the pipeline cannot lower
)

// SemanticError is fatal to the rule it occurs in.
type SemanticError struct {
	Code    string  `json:"code"`
	Rule    string  `json:"rule,omitempty"`
	Op      ir.OpID `json:"op,omitempty"`
	Message string  `json:"message"`
}

func (e *SemanticError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("[%s] rule %s: %s", e.Code, e.Rule, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Errorf builds a SemanticError not yet attributed to a rule.
func Errorf(code string, op ir.OpID, format string, args ...any) *SemanticError {
	return &SemanticError{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// AsSemantic extracts a SemanticError from err's chain.
func AsSemantic(err error) (*SemanticError, bool) {
	var se *SemanticError
	ok := errors.As(err, &se)
	return se, ok
}
