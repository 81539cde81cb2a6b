package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulec/internal/frontend"
	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/pipeline"
	"github.com/roach88/rulec/internal/store"
	"github.com/roach88/rulec/internal/testutil"
)

const invulnYAML = `rules:
  - name: invuln
    tree:
      while_true_effect:
        - is_condition:
            - this_model: [unit]
            - below_half_strength
        - invulnerable_save: [it_subject, 5]
`

const invulnCUE = `rules: [{
	name: "invuln"
	tree: while_true_effect: [
		{is_condition: [{this_model: ["unit"]}, "below_half_strength"]},
		{invulnerable_save: ["it_subject", 5]},
	]
}]
`

const danglingYAML = `rules:
  - name: dangling
    tree:
      invulnerable_save: [it_subject, 4]
  - name: command
    tree:
      at_event:
        - oppo_step_condition: [shooting_phase]
        - gain_cps: [1]
`

func TestCompile(t *testing.T) {
	out, err := Compile("rules.yaml", []byte(invulnYAML), Options{Pipeline: pipeline.Options{Verify: true}})
	require.NoError(t, err)

	assert.Equal(t, store.StatusOK, out.Status)
	assert.Equal(t, ir.SourceFingerprint([]byte(invulnYAML)), out.InputFingerprint)
	assert.Contains(t, out.Output, "def on_evaluate_invulnerable_save(")
	assert.Equal(t, ir.OutputFingerprint(out.Output), out.OutputFingerprint)
	assert.NoError(t, out.Err)
}

func TestCompileCUEMatchesYAML(t *testing.T) {
	y, err := Compile("rules.yaml", []byte(invulnYAML), Options{})
	require.NoError(t, err)
	c, err := Compile("rules.cue", []byte(invulnCUE), Options{})
	require.NoError(t, err)
	assert.Equal(t, y.Output, c.Output)
	assert.NotEqual(t, y.InputFingerprint, c.InputFingerprint)
}

func TestCompileExplicitFormat(t *testing.T) {
	out, err := Compile("-", []byte(invulnCUE), Options{Format: frontend.FormatCUE})
	require.NoError(t, err)
	assert.Equal(t, store.StatusOK, out.Status)
}

func TestCompileStopsWithDump(t *testing.T) {
	out, err := Compile("rules.yaml", []byte(invulnYAML), Options{Pipeline: pipeline.Options{StopAt: pipeline.StageTypeChecked}})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageTypeChecked, out.Result.StoppedAt)
	assert.Contains(t, out.Output, "conditional_effect")
	assert.NotContains(t, out.Output, "def ")
}

func TestCompileDiagnostics(t *testing.T) {
	out, err := Compile("rules.yaml", []byte(danglingYAML), Options{})
	require.NoError(t, err)
	assert.Equal(t, store.StatusDiagnostics, out.Status)
	assert.Contains(t, out.Output, "def on_opponent_shooting_phase_during(")

	run := out.Run()
	require.Len(t, run.Diagnostics, 1)
	assert.Equal(t, "E201", run.Diagnostics[0].Code)
	assert.Equal(t, "dangling", run.Diagnostics[0].Rule)
	assert.Len(t, run.Stages, len(out.Result.Passes))
}

func TestCompileFailFastRecordsDiagnostic(t *testing.T) {
	out, err := Compile("rules.yaml", []byte(danglingYAML), Options{Pipeline: pipeline.Options{FailFast: true}})
	require.Error(t, err)
	assert.Equal(t, store.StatusFailed, out.Status)
	assert.Empty(t, out.Output)

	run := out.Run()
	require.Len(t, run.Diagnostics, 1)
	assert.Equal(t, "E201", run.Diagnostics[0].Code)
}

func TestCompileFrontendErrors(t *testing.T) {
	out, err := Compile("rules.yaml", []byte("rules:\n  - name: bad\n    tree:\n      gain_cp: [1]\n"), Options{})
	require.Error(t, err)
	_, ok := frontend.AsCompileError(err)
	assert.True(t, ok)
	assert.Equal(t, store.StatusFailed, out.Status)
	assert.Nil(t, out.Result)
	assert.Empty(t, out.Run().Stages)

	_, err = Compile("rules.json", []byte("{}"), Options{})
	assert.Error(t, err)
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(invulnYAML), 0o644))

	out, err := CompileFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, path, out.Path)

	_, err = CompileFile(filepath.Join(t.TempDir(), "missing.yaml"), Options{})
	assert.ErrorContains(t, err, "missing.yaml")
}

func TestRecord(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()
	st.WithIDs(testutil.NewFixedIDs("run-a"))
	ctx := context.Background()

	out, err := Compile("rules.yaml", []byte(danglingYAML), Options{Pipeline: pipeline.Options{Verify: true}})
	require.NoError(t, err)
	run, err := Record(ctx, st, out)
	require.NoError(t, err)
	assert.Equal(t, "run-a", run.ID)

	got, err := st.GetRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, store.StatusDiagnostics, got.Status)
	assert.Equal(t, "verify", got.Stages[len(got.Stages)-1].Name)
	assert.Equal(t, out.OutputFingerprint, got.OutputFingerprint)

	_, err = Record(ctx, st, nil)
	assert.Error(t, err)
}
