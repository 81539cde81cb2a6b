package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/rulec/internal/backend"
	"github.com/roach88/rulec/internal/compiler"
	"github.com/roach88/rulec/internal/frontend"
	"github.com/roach88/rulec/internal/pipeline"
	"github.com/roach88/rulec/internal/sema"
	"github.com/roach88/rulec/internal/verify"
)

// Error codes for failures that carry no code of their own.
const (
	ErrCodeFrontend = "E101" // malformed document or unknown construct
	ErrCodePass     = "E401" // a pass raised outside semantic analysis
	ErrCodeBackend  = "E501" // the module broke the rendering contract
	ErrCodeWrite    = "E601" // output could not be written
)

// droppedRules lists the diagnostics of rules the pipeline dropped.
func droppedRules(out *compiler.Outcome) []CLIError {
	if out.Result == nil {
		return nil
	}
	diags := make([]CLIError, 0, len(out.Result.Diagnostics))
	for _, d := range out.Result.Diagnostics {
		diags = append(diags, CLIError{Code: d.Code, Message: semanticMessage(d)})
	}
	return diags
}

// failureDiagnostics breaks a compile error into coded diagnostics.
func failureDiagnostics(err error) []CLIError {
	if se, ok := sema.AsSemantic(err); ok {
		return []CLIError{{Code: se.Code, Message: semanticMessage(se)}}
	}
	var ve verify.Errors
	if errors.As(err, &ve) {
		diags := make([]CLIError, len(ve))
		for i, e := range ve {
			diags[i] = CLIError{Code: e.Code, Message: fmt.Sprintf("%s (op %d): %s", e.Kind, e.Op, e.Message)}
		}
		return diags
	}
	if ce, ok := frontend.AsCompileError(err); ok {
		return []CLIError{{Code: ErrCodeFrontend, Message: ce.Error()}}
	}
	if ce, ok := backend.AsContractError(err); ok {
		return []CLIError{{Code: ErrCodeBackend, Message: ce.Error()}}
	}
	var f *pipeline.Failure
	if errors.As(err, &f) {
		return []CLIError{{Code: ErrCodePass, Message: f.Error()}}
	}
	return []CLIError{{Code: ErrCodeFrontend, Message: err.Error()}}
}

func semanticMessage(se *sema.SemanticError) string {
	if se.Rule == "" {
		return se.Message
	}
	return fmt.Sprintf("rule %s: %s", se.Rule, se.Message)
}

// failureDump is the module dump attached to a failing pass, if any.
func failureDump(err error) string {
	var f *pipeline.Failure
	if errors.As(err, &f) {
		return f.Dump
	}
	return ""
}
