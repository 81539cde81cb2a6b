package lower

import (
	"fmt"
	"strings"

	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/sema"
)

// ClosurePrefix names lifted until_effect bodies: temporary_effect_0, ...
const ClosurePrefix = "temporary_effect_"

// ExtractClosures lifts every until_effect body into a temporary_effect
// definition at the end of the module. The until_effect is replaced by a
// create_temporary_effect spawn passing the captured values, computed once
// at the spawn point. Nested untils are lifted innermost first.
func ExtractClosures(m *ir.Module) (int, error) {
	untils := m.OpsOfKind(m.Root(), dialect.UntilEffect)
	for i := len(untils) - 1; i >= 0; i-- {
		if err := extract(m, untils[i], fmt.Sprintf("%s%d", ClosurePrefix, i)); err != nil {
			return 0, err
		}
	}
	return len(untils), nil
}

func extract(m *ir.Module, until ir.OpID, name string) error {
	te, err := dialect.TimeEventOf(m, until)
	if err != nil {
		return err
	}
	if err := hoistThis(m, until); err != nil {
		return err
	}
	captureExternals(m, until)

	var (
		values []ir.ValueID
		args   = map[ir.ValueID]int{}
		remat  = map[ir.ValueID]ir.ValueID{}
	)
	captures := m.OpsOfKind(until, dialect.CapturedReference)
	for _, c := range captures {
		v, err := spawnValue(m, until, m.Operand(c, 0), remat)
		if err != nil {
			return err
		}
		if _, ok := args[v]; !ok {
			args[v] = len(values)
			values = append(values, v)
		}
	}

	body := m.TakeBlock(m.Region(until, 0))
	params := make([]ir.ValueID, len(values))
	names := map[string]int{}
	for i, v := range values {
		params[i] = m.AppendBlockArg(body, m.Type(v))
		m.SetName(params[i], uniqueName(names, paramName(m, v)))
	}
	for _, c := range captures {
		v, _ := spawnValue(m, until, m.Operand(c, 0), remat)
		if err := m.ReplaceOp(c, params[args[v]]); err != nil {
			return err
		}
	}

	st := dialect.State(dialect.TemporaryEffect, nil, nil, ir.NamedAttr{Name: dialect.AttrSymName, Value: ir.StringAttr(name)})
	st.Regions[0].Empty = true
	closure := m.Create(st)
	m.AppendBlock(m.Region(closure, 0), body)
	if err := m.Insert(closure, ir.AtEnd(m.Body())); err != nil {
		return err
	}

	attrs := append([]ir.NamedAttr{{Name: dialect.AttrCallee, Value: ir.StringAttr(name)}}, te.Attrs()...)
	dialect.Build(ir.NewBuilder(m, m.BeforeOp(until)), dialect.CreateTemporaryEffect, values, nil, attrs...)
	return m.Erase(until)
}

// hoistThis moves the this_subject ops of an until body in front of it so
// the closure sees the subject as it was when the effect was spawned.
// Duplicates of one type collapse onto the first.
func hoistThis(m *ir.Module, until ir.OpID) error {
	first := map[ir.Type]ir.ValueID{}
	for _, op := range m.OpsOfKind(until, dialect.ThisSubject) {
		v := m.Result(op, 0)
		if prev, ok := first[m.Type(v)]; ok {
			if err := m.ReplaceOp(op, prev); err != nil {
				return err
			}
			continue
		}
		first[m.Type(v)] = v
		if err := m.Move(op, m.BeforeOp(until)); err != nil {
			return err
		}
	}
	return nil
}

// captureExternals wraps each operand defined outside until in a
// captured_reference at its point of use.
func captureExternals(m *ir.Module, until ir.OpID) {
	for _, op := range m.Collect(until, nil) {
		if m.Kind(op) == dialect.CapturedReference {
			continue
		}
		for i, v := range m.Operands(op) {
			if definedIn(m, v, until) {
				continue
			}
			c := dialect.BuildCapture(ir.NewBuilder(m, m.BeforeOp(op)), v)
			m.SetOperand(op, i, c)
		}
	}
}

// definedIn reports whether v is defined strictly inside op.
func definedIn(m *ir.Module, v ir.ValueID, op ir.OpID) bool {
	if d := m.DefOp(v); d != 0 {
		return d != op && m.IsAncestor(op, d)
	}
	owner := m.BlockParentOp(m.ArgOwner(v))
	return owner != 0 && m.IsAncestor(op, owner)
}

// spawnValue returns the value the spawn passes for a capture of v. A v
// that does not dominate the spawn point is recomputed there when its
// definition is pure and its own operands are available.
func spawnValue(m *ir.Module, until ir.OpID, v ir.ValueID, remat map[ir.ValueID]ir.ValueID) (ir.ValueID, error) {
	if nv, ok := remat[v]; ok {
		return nv, nil
	}
	if m.DominatesValue(v, until) {
		return v, nil
	}
	def := m.DefOp(v)
	if def == 0 || !m.Has(def, ir.Pure) || m.NumRegions(def) > 0 {
		return 0, sema.Errorf(sema.ErrUnbindableReference, until,
			"captured %s is not available where the effect is spawned", m.Type(v))
	}
	for _, o := range m.Operands(def) {
		if !m.DominatesValue(o, until) {
			return 0, sema.Errorf(sema.ErrUnbindableReference, until,
				"captured %s depends on values unavailable where the effect is spawned", m.Type(v))
		}
	}
	clone := m.Clone(def)
	if err := m.Insert(clone, m.BeforeOp(until)); err != nil {
		return 0, err
	}
	nv := m.Result(clone, m.ValueIndex(v))
	remat[v] = nv
	return nv, nil
}

func paramName(m *ir.Module, v ir.ValueID) string {
	if n := m.ValueName(v); n != "" {
		return n
	}
	t := m.Type(v)
	return strings.ToLower(t.Base.String()) + strings.Repeat("s", int(t.Depth))
}

func uniqueName(seen map[string]int, name string) string {
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s_%d", name, n)
}
