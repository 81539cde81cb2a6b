package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Exit codes.
const (
	ExitSuccess      = 0 // compiled cleanly
	ExitFailure      = 1 // semantic, structural or front-end failure
	ExitCommandError = 2 // bad flag, unreadable input, unusable database
)

// ExitError carries the process exit code for a command error.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// reported is set when the command already printed the problem.
	reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// reportedExit is an ExitError for a problem already written to the
// user, so Execute does not print it a second time.
func reportedExit(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message, reported: true}
}

// GetExitCode extracts the exit code from an error. Errors that are not
// ExitErrors are ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics and verbose output; defaults to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope every command emits under --format json.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	RunID  string    `json:"run_id,omitempty"` // history record, when --db is set
}

// CLIError is an error inside a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.Respond(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes an error. Text errors go to ErrWriter.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.Respond(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	w := f.GetErrWriter()
	f.Diagnostic(code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "  details: %v\n", details)
	}
	return nil
}

// Diagnostic writes one "error[CODE]: message" line to ErrWriter.
func (f *OutputFormatter) Diagnostic(code, message string) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	if code == "" {
		fmt.Fprintf(f.GetErrWriter(), "%s: %s\n", red("error"), message)
		return
	}
	fmt.Fprintf(f.GetErrWriter(), "%s%s: %s\n", red("error"), bold("["+code+"]"), message)
}

// Note writes a dimmed informational line to ErrWriter.
func (f *OutputFormatter) Note(format string, args ...any) {
	dim := color.New(color.Faint).SprintfFunc()
	fmt.Fprintln(f.GetErrWriter(), dim(format, args...))
}

// VerboseLog writes to ErrWriter when verbose is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter, or Writer when it is unset.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Respond writes a complete JSON envelope.
func (f *OutputFormatter) Respond(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
