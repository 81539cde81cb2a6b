package ir

const (
	kConst Kind = iota + 1
	kUse
	kWrap
	kClosure
	kYield
)

type testDialect struct{}

func (testDialect) KindName(k Kind) string {
	return [...]string{"module", "const", "use", "wrap", "closure", "yield"}[k]
}

func (testDialect) KindTraits(k Kind) Traits {
	switch k {
	case kConst:
		return Pure
	case kYield:
		return IsTerminator
	}
	return 0
}

func newTestModule() (*Module, *Builder) {
	m := NewModule(testDialect{})
	return m, NewBuilder(m, AtEnd(m.Body()))
}

func constOp(b *Builder, t Type) ValueID {
	return b.Value(OpState{Kind: kConst, Results: []Type{t}})
}

func useOp(b *Builder, vals ...ValueID) OpID {
	return b.Create(OpState{Kind: kUse, Operands: vals})
}

// wrapOp creates a single-region op and returns it with its body block.
func wrapOp(b *Builder, kind Kind, barrier bool, args ...Type) (OpID, BlockID) {
	op := b.Create(OpState{Kind: kind, Regions: []RegionSpec{{Args: args, Barrier: barrier}}})
	return op, b.Module().EntryBlock(b.Module().Region(op, 0))
}
