package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/sema"
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

func (f *fixture) top() *ir.Builder {
	return f.at(f.m.Body())
}

// op builds a top-level op of kind k and returns builders for its regions.
func (f *fixture) op(b *ir.Builder, k ir.Kind, attrs ...ir.NamedAttr) (ir.OpID, []*ir.Builder) {
	op := dialect.Build(b, k, nil, nil, attrs...)
	var bs []*ir.Builder
	for i := range f.m.NumRegions(op) {
		bs = append(bs, f.at(dialect.Body(f.m, op, i)))
	}
	return op, bs
}

func (f *fixture) kinds(b ir.BlockID) []string {
	var out []string
	for _, op := range f.m.Ops(b) {
		out = append(out, f.m.Name(op))
	}
	return out
}

func (f *fixture) requireCode(err error, code string) {
	f.t.Helper()
	require.Error(f.t, err)
	se, ok := sema.AsSemantic(err)
	require.True(f.t, ok, "not a semantic error: %v", err)
	require.Equal(f.t, code, se.Code)
}

var commandPhaseStart = dialect.TimeEvent{
	Player:    dialect.PlayerYou,
	Instant:   dialect.InstantCommandPhase,
	Qualifier: dialect.QualifierStart,
}

var anyTurnEnd = dialect.TimeEvent{
	Player:    dialect.PlayerAny,
	Instant:   dialect.InstantTurn,
	Qualifier: dialect.QualifierEnd,
}

func gainCP(b *ir.Builder, n int64) ir.OpID {
	return dialect.Build(b, dialect.GainCP, nil, nil, ir.NamedAttr{Name: dialect.AttrQuantity, Value: ir.IntAttr(n)})
}

func effect(b *ir.Builder, k ir.Kind, v ir.ValueID) ir.OpID {
	return dialect.Build(b, k, []ir.ValueID{v}, nil)
}
