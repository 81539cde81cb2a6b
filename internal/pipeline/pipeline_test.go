package pipeline

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulec/internal/canon"
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/frontend"
	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/sema"
)

const invuln = `
rules:
  - name: invuln
    tree:
      while_true_effect:
        - is_condition:
            - this_model: [unit]
            - below_half_strength
        - invulnerable_save: [it_subject, 5]
`

const dangling = `
rules:
  - name: dangling
    tree:
      invulnerable_save: [it_subject, 4]
  - name: command
    tree:
      at_event:
        - oppo_step_condition: [shooting_phase]
        - gain_cps: [1]
`

func load(t *testing.T, src string) (*ir.Module, []dialect.Rule) {
	t.Helper()
	doc, err := frontend.Load("test.yaml", []byte(src), frontend.FormatYAML)
	require.NoError(t, err)
	m, rules, err := frontend.Build(doc)
	require.NoError(t, err)
	return m, rules
}

func names(res *Result) []string {
	var out []string
	for _, p := range res.Passes {
		out = append(out, p.Name)
	}
	return out
}

func TestRunToCompletion(t *testing.T) {
	m, rules := load(t, invuln)
	res, err := Run(m, rules, Options{Verify: true})
	require.NoError(t, err)

	assert.Empty(t, res.Diagnostics)
	assert.False(t, res.Failed())
	assert.Empty(t, res.StoppedAt)
	assert.Equal(t, []string{
		"sema", "bind-captures", "extract-closures", "optimize-filtering", "flatten",
		"lower-events", "resolve-this", "rebind-captures", "canonicalize",
		"lower-loops", "canonicalize-final", "verify",
	}, names(res))

	top := res.Module.Ops(res.Module.Body())
	require.Len(t, top, 1)
	assert.Equal(t, dialect.Function, res.Module.Kind(top[0]))
	sym, err := dialect.TextAttrOf(res.Module, top[0], dialect.AttrSymName)
	require.NoError(t, err)
	assert.Equal(t, "on_evaluate_invulnerable_save", sym)

	for _, p := range res.Passes {
		assert.NotEmpty(t, p.Fingerprint, p.Name)
		assert.Positive(t, p.OpCount, p.Name)
	}
}

func TestRunWithoutVerify(t *testing.T) {
	m, rules := load(t, invuln)
	res, err := Run(m, rules, Options{})
	require.NoError(t, err)
	assert.NotContains(t, names(res), "verify")
	assert.Equal(t, "canonicalize-final", names(res)[len(res.Passes)-1])
}

func TestStopAt(t *testing.T) {
	tests := []struct {
		stage Stage
		last  string
	}{
		{StageTypeChecked, "sema"},
		{StageAfterInline, "bind-captures"},
		{StageCanonicalized, "flatten"},
		{StageBeforePrinting, "canonicalize-final"},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			m, rules := load(t, invuln)
			res, err := Run(m, rules, Options{StopAt: tt.stage, Verify: true})
			require.NoError(t, err)
			assert.Equal(t, tt.stage, res.StoppedAt)
			require.NotEmpty(t, res.Passes)
			assert.Equal(t, tt.last, res.Passes[len(res.Passes)-1].Name)
		})
	}

	m, rules := load(t, invuln)
	res, err := Run(m, rules, Options{StopAt: StageUnchecked})
	require.NoError(t, err)
	assert.Empty(t, res.Passes)
	assert.Equal(t, StageUnchecked, res.StoppedAt)
	assert.Equal(t, dialect.ConditionalEffect, m.Kind(m.Ops(m.Body())[0]))
}

func TestParseStage(t *testing.T) {
	for _, s := range Stages() {
		got, err := ParseStage(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseStage("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseStage("optimized")
	assert.ErrorContains(t, err, `unknown stage "optimized"`)
}

func TestDroppedRuleDoesNotStopOthers(t *testing.T) {
	m, rules := load(t, dangling)
	res, err := Run(m, rules, Options{Verify: true})
	require.NoError(t, err)

	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, sema.ErrDanglingReference, d.Code)
	assert.Equal(t, "dangling", d.Rule)
	assert.True(t, res.Failed())

	require.Len(t, res.Rules, 1)
	assert.Equal(t, "command", res.Rules[0].Name)
	top := m.Ops(m.Body())
	require.Len(t, top, 1)
	sym, err := dialect.TextAttrOf(m, top[0], dialect.AttrSymName)
	require.NoError(t, err)
	assert.Equal(t, "on_opponent_shooting_phase_during", sym)
}

func TestFailFast(t *testing.T) {
	m, rules := load(t, dangling)
	_, err := Run(m, rules, Options{FailFast: true})
	require.Error(t, err)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "sema", f.Pass)
	assert.NotEmpty(t, f.Dump)

	se, ok := sema.AsSemantic(err)
	require.True(t, ok)
	assert.Equal(t, sema.ErrDanglingReference, se.Code)
	assert.Equal(t, "dangling", se.Rule)
}

func TestLoggerAndCanonOptions(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m, rules := load(t, dangling)
	res, err := Run(m, rules, Options{Logger: log, Canon: canon.Options{Mode: canon.Sweep}})
	require.NoError(t, err)
	assert.Len(t, res.Diagnostics, 1)
	assert.Contains(t, buf.String(), "rule dropped")
	assert.Contains(t, buf.String(), "name=lower-events")
}

func TestPassFingerprintsTrackChanges(t *testing.T) {
	m, rules := load(t, invuln)
	res, err := Run(m, rules, Options{})
	require.NoError(t, err)

	byName := map[string]PassRecord{}
	for _, p := range res.Passes {
		byName[p.Name] = p
	}
	assert.NotEqual(t, byName["flatten"].Fingerprint, byName["lower-events"].Fingerprint)
	assert.Equal(t, 1, byName["lower-events"].Rewrites)
}
