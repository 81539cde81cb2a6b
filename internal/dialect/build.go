package dialect

import "github.com/roach88/rulec/internal/ir"

// Build creates an op of kind k at b's insertion point. Regions are created
// from the signature, each with one argument-less block.
func Build(b *ir.Builder, k ir.Kind, operands []ir.ValueID, results []ir.Type, attrs ...ir.NamedAttr) ir.OpID {
	return b.Create(State(k, operands, results, attrs...))
}

// State is the ir.OpState Build would use.
func State(k ir.Kind, operands []ir.ValueID, results []ir.Type, attrs ...ir.NamedAttr) ir.OpState {
	sig := SignatureOf(k)
	st := ir.OpState{Kind: k, Operands: operands, Results: results, Attrs: attrs}
	for i := range sig.Regions {
		st.Regions = append(st.Regions, ir.RegionSpec{Barrier: sig.Barrier && i == 0})
	}
	return st
}

// Body returns the entry block of region i of op.
func Body(m *ir.Module, op ir.OpID, i int) ir.BlockID {
	return m.EntryBlock(m.Region(op, i))
}

// Value builds a single-result op and returns its result.
func Value(b *ir.Builder, k ir.Kind, t ir.Type, operands ...ir.ValueID) ir.ValueID {
	return b.Module().Result(Build(b, k, operands, []ir.Type{t}), 0)
}

func BuildTrue(b *ir.Builder) ir.ValueID {
	return Value(b, True, ir.Bool)
}

func BuildAnd(b *ir.Builder, lhs, rhs ir.ValueID) ir.ValueID {
	return Value(b, And, ir.Bool, lhs, rhs)
}

func BuildIsSame(b *ir.Builder, lhs, rhs ir.ValueID) ir.ValueID {
	return Value(b, IsSame, ir.Bool, lhs, rhs)
}

func BuildBelongsTo(b *ir.Builder, elem, set ir.ValueID) ir.ValueID {
	return Value(b, BelongsTo, ir.Bool, elem, set)
}

func BuildSubjectsIn(b *ir.Builder, unit ir.ValueID) ir.ValueID {
	return Value(b, SubjectsIn, ir.ListOf(ir.Model), unit)
}

func BuildAll(b *ir.Builder, elem ir.Type) ir.ValueID {
	return Value(b, All, ir.ListOf(elem))
}

// BuildThis creates a this_subject of type t carrying the parameter name it
// resolves to.
func BuildThis(b *ir.Builder, t ir.Type) ir.ValueID {
	v := Value(b, ThisSubject, t)
	if name := ThisParamName(t); name != "" {
		b.Module().SetName(v, name)
	}
	return v
}

// BuildCapture wraps v in a captured_reference.
func BuildCapture(b *ir.Builder, v ir.ValueID) ir.ValueID {
	m := b.Module()
	c := Value(b, CapturedReference, m.Type(v), v)
	m.SetName(c, m.ValueName(v))
	return c
}

// BuildYield terminates the current block.
func BuildYield(b *ir.Builder, vals ...ir.ValueID) ir.OpID {
	return Build(b, Yield, vals, nil)
}

// BuildIf creates an if_statement and returns it with its condition and
// true-branch blocks. Both blocks start empty.
func BuildIf(b *ir.Builder) (op ir.OpID, cond, then ir.BlockID) {
	op = Build(b, IfStatement, nil, nil)
	return op, Body(b.Module(), op, 0), Body(b.Module(), op, 1)
}

// BuildForAll creates a loop over list with one element argument.
func BuildForAll(b *ir.Builder, list ir.ValueID) (op ir.OpID, body ir.BlockID, elem ir.ValueID) {
	m := b.Module()
	op = Build(b, ForAllStatement, []ir.ValueID{list}, nil)
	body = Body(m, op, 0)
	elem = m.AppendBlockArg(body, m.Type(list).Elem())
	return op, body, elem
}

// BuildFunction creates a function whose body block takes params.
func BuildFunction(b *ir.Builder, bp Blueprint) (op ir.OpID, body ir.BlockID) {
	m := b.Module()
	op = Build(b, Function, nil, nil, ir.NamedAttr{Name: AttrSymName, Value: ir.StringAttr(bp.Name)})
	body = Body(m, op, 0)
	for _, p := range bp.Params {
		m.SetName(m.AppendBlockArg(body, p.Type), p.Name)
	}
	return op, body
}

// Yielded returns operand i of b's terminator, or 0.
func Yielded(m *ir.Module, b ir.BlockID, i int) ir.ValueID {
	t := m.Terminator(b)
	if t == 0 || m.NumOperands(t) <= i {
		return 0
	}
	return m.Operand(t, i)
}

// SingleOp returns the only non-terminator op of b when b holds exactly
// that op and a terminator yielding its first result.
func SingleOp(m *ir.Module, b ir.BlockID) ir.OpID {
	ops := m.Ops(b)
	if len(ops) != 2 || m.Kind(ops[1]) != Yield {
		return 0
	}
	if m.NumResults(ops[0]) > 0 && Yielded(m, b, 0) != m.Result(ops[0], 0) {
		return 0
	}
	return ops[0]
}

// DefKind returns the kind of the op defining v, or KindModule for block
// arguments.
func DefKind(m *ir.Module, v ir.ValueID) ir.Kind {
	if d := m.DefOp(v); d != 0 {
		return m.Kind(d)
	}
	return ir.KindModule
}

// BuildOneOf creates a representative choice whose base block starts empty.
func BuildOneOf(b *ir.Builder) (op ir.OpID, base ir.BlockID) {
	op = Build(b, OneOf, nil, []ir.Type{ir.Unknown})
	return op, Body(b.Module(), op, 0)
}

// BuildFilter creates a filter_list of not yet inferred type. The
// constraint block takes the candidate element as its argument.
func BuildFilter(b *ir.Builder) (op ir.OpID, base, cond ir.BlockID, elem ir.ValueID) {
	m := b.Module()
	op = Build(b, FilterList, nil, []ir.Type{ir.Unknown})
	base, cond = Body(m, op, 0), Body(m, op, 1)
	elem = m.AppendBlockArg(cond, ir.Unknown)
	return op, base, cond, elem
}

// BuildSelect creates a select_subject whose condition block takes the
// candidate as its argument.
func BuildSelect(b *ir.Builder) (op ir.OpID, cond ir.BlockID, candidate ir.ValueID) {
	m := b.Module()
	op = Build(b, SelectSubject, nil, []ir.Type{ir.Unknown})
	cond = Body(m, op, 0)
	candidate = m.AppendBlockArg(cond, ir.Unknown)
	return op, cond, candidate
}

// BuildReferrable marks v as a subject later back-references may name.
func BuildReferrable(b *ir.Builder, v ir.ValueID) ir.OpID {
	return Build(b, MakeReferrable, []ir.ValueID{v}, nil)
}
