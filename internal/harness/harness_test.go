package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulec/internal/store"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			var result *Result
			if s.Golden {
				result, err = RunWithGolden(t, s)
			} else {
				result, err = Run(s)
			}
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

func TestHarness_RecordsEveryRun(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	h, err := New()
	require.NoError(t, err)
	defer h.Close()
	ctx := context.Background()

	for i, s := range scenarios {
		result, err := h.Run(ctx, s)
		require.NoError(t, err, s.Name)
		require.NotNil(t, result.Run)
		assert.Equal(t, int64(i+1), result.Run.Seq)
		assert.Equal(t, result.Status, result.Run.Status)
	}

	runs, err := h.Store().ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, len(scenarios))
	assert.Equal(t, "scenario-0001", runs[len(runs)-1].ID)
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/dangling.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Run, second.Run)
	assert.Equal(t, Snapshot(first), Snapshot(second))
	assert.Equal(t, "scenario-0001", first.Run.ID)
}

func TestRun_ReportsMismatches(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "expects the wrong things",
		Source:      "rules:\n  - name: cp\n    tree:\n      at_event:\n        - oppo_step_condition: [shooting_phase]\n        - gain_cps: [1]\n",
		Expect:      Expect{Status: "diagnostics"},
		Assertions: []Assertion{
			{Type: AssertOutputContains, Text: "gain_cp(2)"},
			{Type: AssertDiagnostic, Code: "E201"},
		},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "status: expected diagnostics, got ok")
	assert.Contains(t, result.Errors[1], "gain_cp(2)")
	assert.Contains(t, result.Errors[2], "no diagnostics")
}

func TestRun_FailedScenarioIsRecorded(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/unknown_construct.yaml")
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.Equal(t, store.StatusFailed, result.Run.Status)
	assert.Empty(t, result.Run.Stages)
	assert.Empty(t, result.Passes)
}

func TestSnapshot(t *testing.T) {
	r := &Result{
		Output:      "def f(Unit this_unit, Model this_model):\n    gain_cp(1)\n",
		Diagnostics: []store.Diagnostic{{Code: "E201", Rule: "r", Message: "dangling"}},
		Err:         "boom",
	}
	assert.Equal(t, "def f(Unit this_unit, Model this_model):\n    gain_cp(1)\n-- diagnostics --\nE201 r: dangling\n-- error --\nboom\n", string(Snapshot(r)))
	assert.Equal(t, "x\n", string(Snapshot(&Result{Output: "x\n"})))
}

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/invuln.yaml")
	require.NoError(t, err)
	assert.Equal(t, "invuln", s.Name)
	assert.Equal(t, filepath.Join("testdata", "rules", "invuln.cue"), s.File)
	assert.True(t, s.Golden)
	assert.Len(t, s.Assertions, 3)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing name", "description: d\nsource: x\nexpect: {status: ok}\n", "name is required"},
		{"missing description", "name: n\nsource: x\nexpect: {status: ok}\n", "description is required"},
		{"no input", "name: n\ndescription: d\nexpect: {status: ok}\n", "exactly one of source and file"},
		{"both inputs", "name: n\ndescription: d\nsource: x\nfile: y.yaml\nexpect: {status: ok}\n", "exactly one of source and file"},
		{"missing file", "name: n\ndescription: d\nfile: nowhere.yaml\nexpect: {status: ok}\n", "rule file not found"},
		{"missing status", "name: n\ndescription: d\nsource: x\n", "expect.status is required"},
		{"bad status", "name: n\ndescription: d\nsource: x\nexpect: {status: great}\n", `unknown run status "great"`},
		{"error without failure", "name: n\ndescription: d\nsource: x\nexpect: {status: ok, error: boom}\n", "only meaningful with status failed"},
		{"bad stage", "name: n\ndescription: d\nsource: x\nstage: optimized\nexpect: {status: ok}\n", `unknown stage "optimized"`},
		{"bad mode", "name: n\ndescription: d\nsource: x\ncanonicalize: twice\nexpect: {status: ok}\n", "unknown canonicalization mode"},
		{"bad format", "name: n\ndescription: d\nsource: x\nformat: toml\nexpect: {status: ok}\n", "toml"},
		{"unknown field", "name: n\ndescription: d\nsource: x\nexpected: {status: ok}\n", "field expected not found"},
		{"assertion type", "name: n\ndescription: d\nsource: x\nexpect: {status: ok}\nassertions: [{type: trace_contains}]\n", `unknown assertion type "trace_contains"`},
		{"assertion text", "name: n\ndescription: d\nsource: x\nexpect: {status: ok}\nassertions: [{type: output_contains}]\n", "text is required"},
		{"assertion code", "name: n\ndescription: d\nsource: x\nexpect: {status: ok}\nassertions: [{type: diagnostic}]\n", "code is required"},
		{"assertion passes", "name: n\ndescription: d\nsource: x\nexpect: {status: ok}\nassertions: [{type: pass_order}]\n", "passes list is required"},
		{"negative count", "name: n\ndescription: d\nsource: x\nexpect: {status: ok}\nassertions: [{type: diagnostic_count, count: -1}]\n", "count must be non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadScenario("/nonexistent/scenario.yaml")
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenarios_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	body := "name: same\ndescription: d\nsource: x\nexpect: {status: ok}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(body), 0o644))
	_, err := LoadScenarios(dir)
	assert.ErrorContains(t, err, `scenario name "same" used by both`)

	_, err = LoadScenarios(t.TempDir())
	assert.ErrorContains(t, err, "no scenarios")
}
