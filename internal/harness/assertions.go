package harness

import (
	"fmt"
	"strings"
)

// AssertionError is a failed assertion with what was expected and seen.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

func assertOutputContains(r *Result, a Assertion) error {
	if strings.Contains(r.Output, a.Text) {
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("output containing %q", a.Text), Actual: excerpt(r.Output)}
}

func assertOutputLacks(r *Result, a Assertion) error {
	if !strings.Contains(r.Output, a.Text) {
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("output without %q", a.Text), Actual: excerpt(r.Output)}
}

func assertDiagnostic(r *Result, a Assertion) error {
	for _, d := range r.Diagnostics {
		if d.Code == a.Code && (a.Rule == "" || d.Rule == a.Rule) {
			return nil
		}
	}
	want := a.Code
	if a.Rule != "" {
		want += " in rule " + a.Rule
	}
	return &AssertionError{Type: a.Type, Expected: want, Actual: diagnostics(r)}
}

func assertDiagnosticCount(r *Result, a Assertion) error {
	if len(r.Diagnostics) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d diagnostic(s)", a.Count),
		Actual:   fmt.Sprintf("%d: %s", len(r.Diagnostics), diagnostics(r)),
	}
}

// assertPassOrder checks the listed passes ran in that relative order.
// Other passes may run in between.
func assertPassOrder(r *Result, a Assertion) error {
	next := 0
	for _, p := range r.Passes {
		if next < len(a.Passes) && p == a.Passes[next] {
			next++
		}
	}
	if next == len(a.Passes) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: strings.Join(a.Passes, " < "),
		Actual:   fmt.Sprintf("%s (missing or out of order: %s)", strings.Join(r.Passes, ", "), a.Passes[next]),
	}
}

func diagnostics(r *Result) string {
	if len(r.Diagnostics) == 0 {
		return "no diagnostics"
	}
	parts := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		parts[i] = d.Code + " " + d.Rule
	}
	return strings.Join(parts, ", ")
}

func excerpt(s string) string {
	const limit = 200
	if len(s) <= limit {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%q...", s[:limit])
}

// EvaluateAssertions checks every assertion and returns the failures.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertOutputContains:
			err = assertOutputContains(r, a)
		case AssertOutputLacks:
			err = assertOutputLacks(r, a)
		case AssertDiagnostic:
			err = assertDiagnostic(r, a)
		case AssertDiagnosticCount:
			err = assertDiagnosticCount(r, a)
		case AssertPassOrder:
			err = assertPassOrder(r, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
