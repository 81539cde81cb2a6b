package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const danglingDiagnostic = `error[E201]: rule dangling: "it" does not refer to any previously mentioned subject`

type compileResponse struct {
	Status string        `json:"status"`
	Data   CompileReport `json:"data"`
	Error  *CLIError     `json:"error"`
	RunID  string        `json:"run_id"`
}

func decodeCompile(t *testing.T, stdout string) compileResponse {
	t.Helper()
	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	return resp
}

func TestCompile(t *testing.T) {
	want := readFile(t, "../backend/testdata/golden/invuln.golden")

	stdout, stderr, code := execute(t, "", "compile", "testdata/invuln.yaml")
	assert.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, want, stdout)
	assert.Empty(t, stderr)

	stdout, _, code = execute(t, "", "compile", "testdata/invuln.yaml", "--verify", "--canonicalize-mode", "sweep")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, want, stdout)
}

func TestCompile_Stdin(t *testing.T) {
	want := readFile(t, "../backend/testdata/golden/invuln.golden")

	stdout, _, code := execute(t, readFile(t, "testdata/invuln.yaml"), "compile", "-")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, want, stdout)

	stdout, _, code = execute(t, readFile(t, "../harness/testdata/rules/invuln.cue"), "compile", "-", "--input-format", "cue")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, want, stdout)
}

func TestCompile_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handlers.txt")

	stdout, stderr, code := execute(t, "", "compile", "testdata/invuln.yaml", "-o", path, "-v")
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "wrote "+path)
	assert.Equal(t, readFile(t, "../backend/testdata/golden/invuln.golden"), readFile(t, path))
}

func TestCompile_Diagnostics(t *testing.T) {
	stdout, stderr, code := execute(t, "", "compile", "testdata/dangling.yaml")
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "def on_opponent_shooting_phase_during(Unit this_unit, Model this_model):\n    gain_cp(1)\n", stdout)
	assert.True(t, strings.HasSuffix(stderr, danglingDiagnostic+"\n"), stderr)
	assert.Contains(t, stderr, "rule dropped")
}

func TestCompile_FailFast(t *testing.T) {
	stdout, stderr, code := execute(t, "", "compile", "testdata/dangling.yaml", "--fail-fast")
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, danglingDiagnostic)
}

func TestCompile_UnknownConstruct(t *testing.T) {
	stdout, stderr, code := execute(t, "", "compile", "testdata/unknown.yaml")
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "error[E101]")
	assert.Contains(t, stderr, "is not a known effect construct")
}

func TestCompile_Stages(t *testing.T) {
	byFlag, _, code := execute(t, "", "compile", "testdata/invuln.yaml", "--type-checked")
	require.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(byFlag, "(module"), byFlag)
	assert.Contains(t, byFlag, "conditional_effect")
	assert.NotContains(t, byFlag, "such_subject")

	byName, _, code := execute(t, "", "compile", "testdata/invuln.yaml", "--stage", "type-checked")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, byFlag, byName)

	both, _, code := execute(t, "", "compile", "testdata/invuln.yaml", "--stage", "type-checked", "--type-checked")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, byFlag, both)

	unchecked, _, code := execute(t, "", "compile", "testdata/invuln.yaml", "--unchecked")
	require.Equal(t, ExitSuccess, code)
	assert.NotEqual(t, byFlag, unchecked)
}

func TestCompile_BadOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"conflicting stages", []string{"--stage", "unchecked", "--type-checked"}, "conflicting stages"},
		{"unknown stage", []string{"--stage", "optimized"}, `unknown stage "optimized"`},
		{"unknown mode", []string{"--canonicalize-mode", "twice"}, "unknown canonicalization mode"},
		{"zero sweeps", []string{"--max-sweeps", "0"}, "--max-sweeps must be at least 1"},
		{"unknown input format", []string{"--input-format", "toml"}, `unknown input format "toml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"compile", "testdata/invuln.yaml"}, tt.args...)
			stdout, stderr, code := execute(t, "", args...)
			assert.Equal(t, ExitCommandError, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestCompile_MissingInput(t *testing.T) {
	_, stderr, code := execute(t, "", "compile", "testdata/missing.yaml")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "read input")
}

func TestCompile_JSON(t *testing.T) {
	stdout, _, code := execute(t, "", "--format", "json", "compile", "testdata/invuln.yaml")
	require.Equal(t, ExitSuccess, code)

	resp := decodeCompile(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "ok", string(resp.Data.Status))
	assert.Equal(t, readFile(t, "../backend/testdata/golden/invuln.golden"), resp.Data.Output)
	assert.NotEmpty(t, resp.Data.InputFingerprint)
	assert.NotEmpty(t, resp.Data.OutputFingerprint)
	require.NotEmpty(t, resp.Data.Passes)
	assert.Equal(t, "sema", resp.Data.Passes[0].Name)
	assert.Empty(t, resp.Data.Stage)
}

func TestCompile_JSONDiagnostics(t *testing.T) {
	stdout, stderr, code := execute(t, "", "--format", "json", "compile", "testdata/dangling.yaml")
	assert.Equal(t, ExitFailure, code)
	assert.NotContains(t, stderr, "error[")

	resp := decodeCompile(t, stdout)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E201", resp.Error.Code)
	assert.Equal(t, "1 rule(s) dropped", resp.Error.Message)
	assert.Equal(t, "diagnostics", string(resp.Data.Status))
	require.Len(t, resp.Data.Diagnostics, 1)
	assert.Contains(t, resp.Data.Output, "gain_cp(1)")
}

func TestCompile_JSONFailure(t *testing.T) {
	stdout, _, code := execute(t, "", "--format", "json", "compile", "testdata/dangling.yaml", "--fail-fast")
	assert.Equal(t, ExitFailure, code)

	resp := decodeCompile(t, stdout)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E201", resp.Error.Code)
	assert.Equal(t, "failed", string(resp.Data.Status))

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok, "details: %#v", resp.Error.Details)
	assert.Contains(t, details["dump"], "(module")
	assert.NotEmpty(t, details["diagnostics"])
}

func TestCompile_Verbose(t *testing.T) {
	_, stderr, code := execute(t, "", "compile", "testdata/invuln.yaml", "-v")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "compiled testdata/invuln.yaml: ok")
	assert.Contains(t, stderr, "lower-events")
}

func TestCompile_FailureDump(t *testing.T) {
	stdout, stderr, code := execute(t, "", "compile", "testdata/dangling.yaml", "--fail-fast")
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, danglingDiagnostic)
	assert.Contains(t, stderr, "module at failure:")
	assert.Contains(t, stderr, "(module")
	assert.Less(t, strings.Index(stderr, danglingDiagnostic), strings.Index(stderr, "module at failure:"))
}

func TestVerify(t *testing.T) {
	stdout, stderr, code := execute(t, "", "verify", "testdata/invuln.yaml")
	assert.Equal(t, ExitSuccess, code, stderr)
	assert.True(t, strings.HasPrefix(stdout, "✓ testdata/invuln.yaml verified after "), stdout)

	stdout, stderr, code = execute(t, "", "verify", "testdata/dangling.yaml")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "verified")
	assert.Contains(t, stderr, danglingDiagnostic)
}

func TestVerify_JSON(t *testing.T) {
	stdout, _, code := execute(t, "", "--format", "json", "verify", "testdata/invuln.yaml")
	require.Equal(t, ExitSuccess, code)

	resp := decodeCompile(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Data.Output)
	require.NotEmpty(t, resp.Data.Passes)
	assert.Equal(t, "verify", resp.Data.Passes[len(resp.Data.Passes)-1].Name)
}

func TestDump(t *testing.T) {
	stdout, _, code := execute(t, "", "dump", "testdata/invuln.yaml")
	require.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(stdout, "(module"), stdout)
	assert.Contains(t, stdout, "function")

	typed, _, code := execute(t, "", "dump", "testdata/invuln.yaml", "--stage", "type-checked")
	require.Equal(t, ExitSuccess, code)
	compiled, _, _ := execute(t, "", "compile", "testdata/invuln.yaml", "--type-checked")
	assert.Equal(t, compiled, typed)
}

func TestDump_JSON(t *testing.T) {
	stdout, _, code := execute(t, "", "--format", "json", "dump", "testdata/invuln.yaml")
	require.Equal(t, ExitSuccess, code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Stage  string          `json:"stage"`
			Output string          `json:"output"`
			Module json.RawMessage `json:"module"`
			Passes []struct {
				Name string `json:"name"`
			} `json:"passes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "before-printing", resp.Data.Stage)
	assert.Empty(t, resp.Data.Output)
	assert.True(t, json.Valid(resp.Data.Module))
	assert.True(t, strings.HasPrefix(string(resp.Data.Module), "{"))
	require.NotEmpty(t, resp.Data.Passes)
	assert.Equal(t, "canonicalize-final", resp.Data.Passes[len(resp.Data.Passes)-1].Name)
}
