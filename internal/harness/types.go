package harness

import "github.com/roach88/rulec/internal/store"

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when the status, error and every assertion matched.
	Pass bool `json:"pass"`

	Status store.Status `json:"status"`

	// Output is the rendered program, or the dump at the scenario's stage.
	Output string `json:"output"`

	// Passes are the pipeline passes that ran, in order.
	Passes []string `json:"passes"`

	// Diagnostics are read back from the recorded run.
	Diagnostics []store.Diagnostic `json:"diagnostics,omitempty"`

	// Err is the compile error text, if any.
	Err string `json:"error,omitempty"`

	Run *store.Run `json:"run,omitempty"`

	// Errors lists every mismatch. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult returns a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Passes: []string{}, Errors: []string{}}
}

// AddError records a mismatch and fails the result.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
