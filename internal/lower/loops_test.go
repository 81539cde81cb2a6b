package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/sema"
)

// choice builds a one_of over base at b and returns its result.
func (f *fixture) choice(b *ir.Builder, t ir.Type, base func(*ir.Builder) ir.ValueID) ir.ValueID {
	op, bb := dialect.BuildOneOf(b)
	f.m.SetType(f.m.Result(op, 0), t)
	inner := f.at(bb)
	dialect.BuildYield(inner, base(inner))
	return f.m.Result(op, 0)
}

func allUnits(b *ir.Builder) ir.ValueID { return dialect.BuildAll(b, ir.Unit) }

func TestLowerLoopsWrapsDependents(t *testing.T) {
	f := newFixture(t)
	unit := f.choice(f.top(), ir.Unit, allUnits)
	forbid := effect(f.top(), dialect.ForbidCharge, unit)
	other := dialect.BuildAll(f.top(), ir.Model)
	shock := effect(f.top(), dialect.BattleShockTest, unit)

	n, err := LowerLoops(f.m)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []string{"all", "all", "for_all_statement"}, f.kinds(f.m.Body()))
	assert.Equal(t, other, f.m.Result(f.m.Ops(f.m.Body())[1], 0))
	loop := f.m.Ops(f.m.Body())[2]
	body := dialect.Body(f.m, loop, 0)
	assert.Equal(t, []string{"forbid_charge", "battle_shock_test", "yield"}, f.kinds(body))
	elem := f.m.Arg(body, 0)
	assert.Equal(t, ir.Unit, f.m.Type(elem))
	assert.Equal(t, elem, f.m.Operand(forbid, 0))
	assert.Equal(t, elem, f.m.Operand(shock, 0))
	assert.Empty(t, f.m.OpsOfKind(f.m.Root(), dialect.OneOf))
}

func TestLowerLoopsKeepsEffectOrder(t *testing.T) {
	f := newFixture(t)
	unit := f.choice(f.top(), ir.Unit, allUnits)
	forbid := effect(f.top(), dialect.ForbidCharge, unit)
	gain := gainCP(f.top(), 1)
	shock := effect(f.top(), dialect.BattleShockTest, unit)

	_, err := LowerLoops(f.m)
	require.NoError(t, err)

	ops := f.m.Ops(f.m.Body())
	assert.Equal(t, []string{"all", "for_all_statement", "gain_cp", "for_all_statement"}, f.kinds(f.m.Body()))
	assert.Equal(t, gain, ops[2])

	first, second := dialect.Body(f.m, ops[1], 0), dialect.Body(f.m, ops[3], 0)
	assert.Equal(t, []string{"forbid_charge", "yield"}, f.kinds(first))
	assert.Equal(t, []string{"battle_shock_test", "yield"}, f.kinds(second))
	assert.Equal(t, f.m.Arg(first, 0), f.m.Operand(forbid, 0))
	assert.Equal(t, f.m.Arg(second, 0), f.m.Operand(shock, 0))
	assert.Equal(t, f.m.Operand(ops[1], 0), f.m.Operand(ops[3], 0), "both loops iterate the same set")
	assert.Empty(t, f.m.OpsOfKind(f.m.Root(), dialect.OneOf))
}

func TestLowerLoopsSingleLoopWhenValuesFlow(t *testing.T) {
	f := newFixture(t)
	unit := f.choice(f.top(), ir.Unit, allUnits)
	below := dialect.Value(f.top(), dialect.BelowHalfStrength, ir.Bool, unit)
	gainCP(f.top(), 1)
	_, rs := f.op(f.top(), dialect.IfStatement)
	dialect.BuildYield(rs[0], below)
	effect(rs[1], dialect.BattleShockTest, unit)
	dialect.BuildYield(rs[1])

	_, err := LowerLoops(f.m)
	require.NoError(t, err)

	assert.Equal(t, []string{"all", "gain_cp", "for_all_statement"}, f.kinds(f.m.Body()))
	loop := f.m.Ops(f.m.Body())[2]
	assert.Equal(t, []string{"below_half_strength", "if_statement", "yield"}, f.kinds(dialect.Body(f.m, loop, 0)))
}

func TestLowerLoopsHoistsToFunctionBody(t *testing.T) {
	f := newFixture(t)
	_, fb := dialect.BuildFunction(f.top(), dialect.Blueprint{Name: "on_test"})
	body := f.at(fb)
	_, rs := f.op(body, dialect.IfStatement)
	dialect.BuildYield(body)
	unit := f.choice(rs[0], ir.Unit, allUnits)
	dialect.BuildYield(rs[0], dialect.Value(rs[0], dialect.BelowHalfStrength, ir.Bool, unit))
	effect(rs[1], dialect.ForbidCharge, unit)
	dialect.BuildYield(rs[1])

	_, err := LowerLoops(f.m)
	require.NoError(t, err)

	assert.Equal(t, []string{"all", "for_all_statement", "yield"}, f.kinds(fb))
	loop := f.m.Ops(fb)[1]
	assert.Equal(t, []string{"if_statement", "yield"}, f.kinds(dialect.Body(f.m, loop, 0)))
	assert.Empty(t, f.m.OpsOfKind(f.m.Root(), dialect.OneOf))
}

func TestLowerLoopsChoiceOfOneSubject(t *testing.T) {
	f := newFixture(t)
	var this ir.ValueID
	unit := f.choice(f.top(), ir.Unit, func(b *ir.Builder) ir.ValueID {
		this = dialect.BuildThis(b, ir.Unit)
		return this
	})
	forbid := effect(f.top(), dialect.ForbidCharge, unit)

	_, err := LowerLoops(f.m)
	require.NoError(t, err)
	assert.Equal(t, []string{"this_subject", "forbid_charge"}, f.kinds(f.m.Body()))
	assert.Equal(t, this, f.m.Operand(forbid, 0))
}

func TestLowerLoopsDropsUnusedChoice(t *testing.T) {
	f := newFixture(t)
	f.choice(f.top(), ir.Unit, allUnits)
	gainCP(f.top(), 1)

	_, err := LowerLoops(f.m)
	require.NoError(t, err)
	assert.Equal(t, []string{"gain_cp"}, f.kinds(f.m.Body()))
}

func TestLowerLoopsRejectsEscapingChoice(t *testing.T) {
	f := newFixture(t)
	_, fb := dialect.BuildFunction(f.top(), dialect.Blueprint{Name: "on_test"})
	body := f.at(fb)
	_, rs := f.op(body, dialect.IfStatement)
	dialect.BuildYield(body)
	dialect.BuildYield(rs[1])
	unit := dialect.Value(rs[0], dialect.UnitOf, ir.Unit, dialect.BuildThis(rs[0], ir.Model))
	model := f.choice(rs[0], ir.Model, func(b *ir.Builder) ir.ValueID {
		return dialect.BuildSubjectsIn(b, unit)
	})
	dialect.BuildYield(rs[0], dialect.Value(rs[0], dialect.BelowHalfStrength, ir.Bool, model))

	_, err := LowerLoops(f.m)
	f.requireCode(err, sema.ErrUnsupported)
}
