package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

func TestFilterTypesPropagate(t *testing.T) {
	f := newFixture(t)
	op, cond, effect := f.conditional()
	dialect.BuildYield(cond, dialect.BuildTrue(cond))
	one, base := dialect.BuildOneOf(effect)
	inner := f.at(base)
	filter, fbase, fcond, elem := dialect.BuildFilter(inner)
	dialect.BuildYield(inner, f.m.Result(filter, 0))
	fb := f.at(fbase)
	dialect.BuildYield(fb, dialect.BuildAll(fb, ir.Unit))
	fc := f.at(fcond)
	dialect.BuildYield(fc, keyword(fc, elem, "monster"))
	dialect.Build(effect, dialect.BattleShockTest, []ir.ValueID{f.m.Result(one, 0)}, nil)
	dialect.BuildYield(effect)

	rep := f.analyze(rule("r", op))

	require.False(t, rep.Failed())
	assert.Equal(t, ir.ListOf(ir.Unit), f.m.Type(f.m.Result(filter, 0)))
	assert.Equal(t, ir.Unit, f.m.Type(elem))
	assert.Equal(t, ir.Unit, f.m.Type(f.m.Result(one, 0)))
}

func TestFilterWithTrueConstraintFoldsIntoBase(t *testing.T) {
	f := newFixture(t)
	op, cond, effect := f.conditional()
	dialect.BuildYield(cond, dialect.BuildTrue(cond))
	filter, fbase, fcond, _ := dialect.BuildFilter(effect)
	fb := f.at(fbase)
	dialect.BuildYield(fb, dialect.BuildAll(fb, ir.Model))
	fc := f.at(fcond)
	dialect.BuildYield(fc, dialect.BuildTrue(fc))
	forbid := dialect.Build(effect, dialect.ForbidCharge, []ir.ValueID{f.m.Result(filter, 0)}, nil)
	dialect.BuildYield(effect)

	f.analyze(rule("r", op))

	assert.False(t, f.m.IsLive(filter))
	assert.Equal(t, dialect.All, dialect.DefKind(f.m, f.m.Operand(forbid, 0)))
}

func TestNestedFiltersMerge(t *testing.T) {
	f := newFixture(t)
	op, cond, effect := f.conditional()
	dialect.BuildYield(cond, dialect.BuildTrue(cond))

	outer, obase, ocond, oelem := dialect.BuildFilter(effect)
	ob := f.at(obase)
	inner, ibase, icond, ielem := dialect.BuildFilter(ob)
	dialect.BuildYield(ob, f.m.Result(inner, 0))
	ib := f.at(ibase)
	dialect.BuildYield(ib, dialect.BuildAll(ib, ir.Unit))
	ic := f.at(icond)
	dialect.BuildYield(ic, keyword(ic, ielem, "infantry"))
	oc := f.at(ocond)
	owned := dialect.Build(oc, dialect.IsOwnedBy, []ir.ValueID{oelem}, []ir.Type{ir.Bool},
		ir.NamedAttr{Name: dialect.AttrPlayer, Value: ir.EnumAttr("opponent")})
	dialect.BuildYield(oc, f.m.Result(owned, 0))
	forbid := dialect.Build(effect, dialect.ForbidCharge, []ir.ValueID{f.m.Result(outer, 0)}, nil)
	dialect.BuildYield(effect)

	f.analyze(rule("r", op))

	require.Len(t, f.m.OpsOfKind(f.m.Root(), dialect.FilterList), 1)
	assert.Equal(t, f.m.Result(inner, 0), f.m.Operand(forbid, 0))
	assert.Equal(t, ielem, f.m.Operand(owned, 0))
	guard := dialect.Yielded(f.m, icond, 0)
	assert.Equal(t, dialect.And, dialect.DefKind(f.m, guard))
}

func TestMembershipInFilterAppliesConstraint(t *testing.T) {
	f := newFixture(t)
	op, cond, effect := f.conditional()
	this := dialect.BuildThis(cond, ir.Unit)
	filter, fbase, fcond, elem := dialect.BuildFilter(cond)
	fb := f.at(fbase)
	dialect.BuildYield(fb, dialect.BuildAll(fb, ir.Unit))
	fc := f.at(fcond)
	dialect.BuildYield(fc, keyword(fc, elem, "monster"))
	dialect.BuildYield(cond, dialect.BuildBelongsTo(cond, this, f.m.Result(filter, 0)))
	dialect.BuildYield(effect)

	f.analyze(rule("r", op))

	guard := dialect.Yielded(f.m, dialect.Body(f.m, op, 0), 0)
	require.Equal(t, dialect.HasKeyword, dialect.DefKind(f.m, guard))
	assert.Equal(t, this, f.m.Operand(f.m.DefOp(guard), 0))
	assert.False(t, f.m.IsLive(filter))
	assert.Empty(t, f.m.OpsOfKind(f.m.Root(), dialect.BelongsTo))
}

func TestMembershipInRestrictedFilterKeepsBase(t *testing.T) {
	f := newFixture(t)
	op, cond, effect := f.conditional()
	this := dialect.BuildThis(cond, ir.Model)
	leader := dialect.BuildThis(cond, ir.Unit)
	filter, fbase, fcond, elem := dialect.BuildFilter(cond)
	fb := f.at(fbase)
	dialect.BuildYield(fb, dialect.BuildSubjectsIn(fb, leader))
	fc := f.at(fcond)
	dialect.BuildYield(fc, keyword(fc, elem, "character"))
	dialect.BuildYield(cond, dialect.BuildBelongsTo(cond, this, f.m.Result(filter, 0)))
	dialect.BuildYield(effect)

	f.analyze(rule("r", op))

	guard := dialect.Yielded(f.m, dialect.Body(f.m, op, 0), 0)
	require.Equal(t, dialect.And, dialect.DefKind(f.m, guard))
	members := f.m.OpsOfKind(f.m.Root(), dialect.BelongsTo)
	require.Len(t, members, 1)
	assert.Equal(t, this, f.m.Operand(members[0], 0))
	assert.Equal(t, leader, f.m.Operand(members[0], 1))
}

func TestEqualityAgainstChoiceBecomesMembership(t *testing.T) {
	f := newFixture(t)
	op, cond, effect := f.conditional()
	this := dialect.BuildThis(cond, ir.Unit)
	one, base := dialect.BuildOneOf(cond)
	bb := f.at(base)
	dialect.BuildYield(bb, dialect.BuildAll(bb, ir.Unit))
	dialect.BuildYield(cond, dialect.BuildIsSame(cond, this, f.m.Result(one, 0)))
	dialect.BuildYield(effect)

	f.analyze(rule("r", op))

	assert.False(t, f.m.IsLive(one))
	guard := dialect.Yielded(f.m, dialect.Body(f.m, op, 0), 0)
	require.Equal(t, dialect.BelongsTo, dialect.DefKind(f.m, guard))
	member := f.m.DefOp(guard)
	assert.Equal(t, this, f.m.Operand(member, 0))
	assert.Equal(t, dialect.All, dialect.DefKind(f.m, f.m.Operand(member, 1)))
}

func TestSameTypeMembershipBecomesEquality(t *testing.T) {
	f := newFixture(t)
	op, cond, effect := f.conditional()
	a := dialect.BuildThis(cond, ir.Unit)
	b := dialect.BuildThis(cond, ir.Unit)
	dialect.BuildYield(cond, dialect.BuildBelongsTo(cond, a, b))
	dialect.BuildYield(effect)

	f.analyze(rule("r", op))

	guard := dialect.Yielded(f.m, dialect.Body(f.m, op, 0), 0)
	assert.Equal(t, dialect.IsSame, dialect.DefKind(f.m, guard))
}

func TestSelectTakesCandidateType(t *testing.T) {
	f := newFixture(t)
	op, cond, effect := f.conditional()
	dialect.BuildYield(cond, dialect.BuildTrue(cond))
	sel, scond, cand := dialect.BuildSelect(effect)
	dialect.BuildReferrable(effect, f.m.Result(sel, 0))
	sb := f.at(scond)
	dialect.BuildYield(sb, dialect.BuildBelongsTo(sb, cand, dialect.BuildAll(sb, ir.Unit)))
	dialect.Build(effect, dialect.ForbidCharge, []ir.ValueID{such(effect, ir.Unit)}, nil)
	dialect.BuildYield(effect)

	rep := f.analyze(rule("r", op))

	require.False(t, rep.Failed())
	assert.Equal(t, ir.Unit, f.m.Type(cand))
	assert.Equal(t, ir.Unit, f.m.Type(f.m.Result(sel, 0)))
	assert.Empty(t, f.m.OpsOfKind(f.m.Root(), dialect.SuchSubject))
}
