package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulec/internal/ir"
)

func TestCatalogIsComplete(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds() {
		sig := SignatureOf(k)
		require.NotEmpty(t, sig.Name, "kind %d has no name", k)
		assert.False(t, seen[sig.Name], "duplicate name %s", sig.Name)
		seen[sig.Name] = true

		got, ok := Lookup(sig.Name)
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	assert.Len(t, seen, int(numKinds)-1)
}

func TestEventsMapOntoFunctions(t *testing.T) {
	for _, k := range Kinds() {
		sig := SignatureOf(k)
		if sig.Family == FamilyEvent {
			assert.True(t, sig.Traits.Has(ir.MappableOntoFunction|ir.HasPreconditions), sig.Name)
		}
	}
}

func TestSignatureOfPanicsOutsideCatalog(t *testing.T) {
	assert.Panics(t, func() { SignatureOf(numKinds) })
	assert.Panics(t, func() { SignatureOf(ir.KindModule) })
}

func TestConstraintAccepts(t *testing.T) {
	assert.True(t, EntityValue.Accepts(ir.Unit))
	assert.False(t, EntityValue.Accepts(ir.ListOf(ir.Unit)))
	assert.True(t, SubjectValue.Accepts(ir.ListOf(ir.Model)))
	assert.False(t, SubjectValue.Accepts(ir.ListOf(ir.ListOf(ir.Model))))
	assert.False(t, SubjectValue.Accepts(ir.Bool))
	assert.True(t, ListValue.Accepts(ir.ListOf(ir.Unit)))
	assert.True(t, AnyType.Accepts(ir.Unknown))
	assert.False(t, BoolValue.Accepts(ir.Unknown))
}

func TestDialectNamesOps(t *testing.T) {
	m := NewModule()
	b := ir.NewBuilder(m, ir.AtEnd(m.Body()))
	v := BuildThis(b, ir.Model)
	assert.Equal(t, "this_subject", m.Name(m.DefOp(v)))
	assert.True(t, m.Has(m.DefOp(v), ir.ContextDependent))
	assert.Equal(t, ParamThisModel, m.ValueName(v))
	assert.Equal(t, FamilySubject, FamilyOf(m, m.DefOp(v)))
}

func TestBuildCreatesSignatureRegions(t *testing.T) {
	m := NewModule()
	b := ir.NewBuilder(m, ir.AtEnd(m.Body()))
	until := Build(b, UntilEffect, nil, nil, TimeEvent{PlayerAny, InstantTurn, QualifierEnd}.Attrs()...)
	require.Equal(t, 1, m.NumRegions(until))
	assert.True(t, m.IsBarrier(m.Region(until, 0)))

	destroys := Build(b, Destroys, nil, nil)
	assert.Equal(t, 3, m.NumRegions(destroys))
	assert.False(t, m.IsBarrier(m.Region(destroys, 0)))
}

func TestSingleOp(t *testing.T) {
	m := NewModule()
	b := ir.NewBuilder(m, ir.AtEnd(m.Body()))
	one := Build(b, OneOf, nil, []ir.Type{ir.Unknown})
	body := Body(m, one, 0)
	ib := ir.NewBuilder(m, ir.AtEnd(body))
	all := BuildAll(ib, ir.Unit)
	BuildYield(ib, all)

	assert.Equal(t, m.DefOp(all), SingleOp(m, body))
	assert.Equal(t, all, Yielded(m, body, 0))
	assert.Equal(t, All, DefKind(m, all))
}
