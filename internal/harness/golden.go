package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot is the golden form of a result: the output, then the
// diagnostics and the compile error when there are any.
func Snapshot(r *Result) []byte {
	var b strings.Builder
	b.WriteString(r.Output)
	if len(r.Diagnostics) > 0 {
		b.WriteString("-- diagnostics --\n")
		for _, d := range r.Diagnostics {
			fmt.Fprintf(&b, "%s %s: %s\n", d.Code, d.Rule, d.Message)
		}
	}
	if r.Err != "" {
		fmt.Fprintf(&b, "-- error --\n%s\n", r.Err)
	}
	return []byte(b.String())
}

// RunWithGolden executes scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()
	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against the golden file for
// name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
