package sema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

type fixture struct {
	t *testing.T
	m *ir.Module
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, m: dialect.NewModule()}
}

func (f *fixture) at(b ir.BlockID) *ir.Builder {
	return ir.NewBuilder(f.m, ir.AtEnd(b))
}

// conditional creates a top-level conditional_effect and returns builders
// for its condition and effect blocks.
func (f *fixture) conditional() (op ir.OpID, cond, effect *ir.Builder) {
	op = dialect.Build(f.at(f.m.Body()), dialect.ConditionalEffect, nil, nil)
	return op, f.at(dialect.Body(f.m, op, 0)), f.at(dialect.Body(f.m, op, 1))
}

func (f *fixture) analyze(rules ...dialect.Rule) *Report {
	f.t.Helper()
	rep, err := Analyze(f.m, rules, Options{})
	require.NoError(f.t, err)
	return rep
}

func rule(name string, ops ...ir.OpID) dialect.Rule {
	return dialect.Rule{Name: name, Ops: ops}
}

func belowHalf(b *ir.Builder, v ir.ValueID) ir.ValueID {
	return dialect.Value(b, dialect.BelowHalfStrength, ir.Bool, v)
}

func keyword(b *ir.Builder, v ir.ValueID, kw string) ir.ValueID {
	return b.Module().Result(dialect.Build(b, dialect.HasKeyword, []ir.ValueID{v}, []ir.Type{ir.Bool},
		ir.NamedAttr{Name: dialect.AttrKeyword, Value: ir.EnumAttr(kw)}), 0)
}

func such(b *ir.Builder, t ir.Type) ir.ValueID {
	return dialect.Value(b, dialect.SuchSubject, t)
}
