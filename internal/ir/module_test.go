package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModuleHasEmptyBody(t *testing.T) {
	m := NewModule(testDialect{})
	require.True(t, m.Root().IsValid())
	assert.Equal(t, "module", m.Name(m.Root()))
	assert.Equal(t, 0, m.NumOps(m.Body()))
	assert.True(t, m.Has(m.Root(), NoTerminator))
}

func TestCreateRegistersUses(t *testing.T) {
	m, b := newTestModule()
	v := constOp(b, Unit)
	u1 := useOp(b, v)
	u2 := useOp(b, v, v)

	assert.Equal(t, 3, m.NumUses(v))
	assert.Equal(t, []Use{{Op: u1, Index: 0}, {Op: u2, Index: 0}, {Op: u2, Index: 1}}, m.Uses(v))
	assert.Equal(t, m.Body(), m.Parent(u1))
	assert.Equal(t, m.Root(), m.ParentOp(u1))
}

func TestTypes(t *testing.T) {
	lm := ListOf(Model)
	assert.True(t, lm.IsList())
	assert.Equal(t, Model, lm.Elem())
	assert.Equal(t, "List<List<Unit>>", ListOf(ListOf(Unit)).String())
	assert.True(t, Unknown.IsUnknown())
	assert.True(t, Unit.IsEntity())
	assert.False(t, lm.IsEntity())

	parsed, err := ParseType("List<Model>")
	require.NoError(t, err)
	assert.Equal(t, lm, parsed)

	_, err = ParseType("Dragon")
	assert.Error(t, err)
}

func TestAttrs(t *testing.T) {
	m, b := newTestModule()
	op := b.Create(OpState{Kind: kUse, Attrs: []NamedAttr{{Name: "value", Value: IntAttr(5)}}})

	a, ok := m.Attr(op, "value")
	require.True(t, ok)
	assert.Equal(t, int64(5), a.Int())

	m.SetAttr(op, "value", IntAttr(6))
	m.SetAttr(op, "name", StringAttr("x"))
	a, _ = m.Attr(op, "value")
	assert.Equal(t, int64(6), a.Int())
	assert.Len(t, m.Attrs(op), 2)

	_, ok = m.Attr(op, "missing")
	assert.False(t, ok)
	assert.Equal(t, `"x"`, StringAttr("x").String())
	assert.Equal(t, "self", EnumAttr("self").String())
}

func TestTraitsString(t *testing.T) {
	assert.Equal(t, "pure|terminator", (Pure | IsTerminator).String())
	assert.True(t, (Pure | HasPreconditions).Has(Pure))
	assert.False(t, Pure.Has(Pure|IsTerminator))
}
