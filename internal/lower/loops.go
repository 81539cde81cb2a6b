package lower

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/sema"
)

// LowerLoops replaces every one_of with iteration. The set is computed
// ahead of the op that contains the choice in the enclosing function body,
// and every op of that body depending on the chosen element moves into a
// for_all_statement binding it. A side effect between two dependents that
// share no values splits them into consecutive loops over the same set. A
// choice from a single subject is that subject.
func LowerLoops(m *ir.Module) (int, error) {
	n := 0
	for _, op := range m.OpsOfKind(m.Root(), dialect.OneOf) {
		if !m.IsLive(op) {
			continue
		}
		if err := lowerChoice(m, op); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func lowerChoice(m *ir.Module, op ir.OpID) error {
	choice := m.Result(op, 0)
	if !m.HasUses(choice) {
		return m.Erase(op)
	}
	anchor := loopAnchor(m, op)
	set, err := m.InlineRegion(m.Region(op, 0), m.BeforeOp(anchor), nil)
	if err != nil {
		return err
	}
	if len(set) == 0 {
		return sema.Errorf(sema.ErrUnsupported, op, "one_of base yields no subject")
	}
	if !m.Type(set[0]).IsList() {
		return m.ReplaceOp(op, set[0])
	}

	start := anchor
	if anchor == op {
		start = m.Next(op)
	}
	segs, escapes := split(m, start, choice)
	if escapes || len(segs) == 0 {
		return sema.Errorf(sema.ErrUnsupported, op, "chosen subject escapes its block")
	}
	for _, seg := range segs {
		for _, o := range seg.hoist {
			if err := m.Move(o, m.BeforeOp(seg.deps[0])); err != nil {
				return err
			}
		}
		_, body, elem := dialect.BuildForAll(ir.NewBuilder(m, m.BeforeOp(seg.deps[0])), set[0])
		for _, d := range seg.deps {
			if err := m.Move(d, ir.AtEnd(body)); err != nil {
				return err
			}
		}
		dialect.BuildYield(ir.NewBuilder(m, ir.AtEnd(body)))
		loop := m.BlockParentOp(body)
		m.ReplaceUsesIf(choice, elem, func(u ir.Use) bool { return m.IsAncestor(loop, u.Op) })
	}
	if m.HasUses(choice) {
		return sema.Errorf(sema.ErrUnsupported, m.Uses(choice)[0].Op, "chosen subject used outside the loop over it")
	}
	return m.Erase(op)
}

// loopAnchor picks the op the set is computed in front of: the ancestor of
// op in the enclosing function body, or op itself when the set depends on
// values local to op's block.
func loopAnchor(m *ir.Module, op ir.OpID) ir.OpID {
	block := m.Body()
	for cur := m.ParentOp(op); cur != 0; cur = m.ParentOp(cur) {
		if m.Has(cur, ir.FunctionLike) {
			block = dialect.Body(m, cur, 0)
			break
		}
	}
	anchor := m.AncestorIn(op, block)
	for _, inner := range m.Collect(op, nil) {
		for _, v := range m.Operands(inner) {
			if !definedIn(m, v, op) && !m.DominatesValue(v, anchor) {
				return op
			}
		}
	}
	return anchor
}

// segment is one loop's worth of ops: deps move into the loop body, hoist
// are independent ops moved in front of it.
type segment struct {
	deps  []ir.OpID
	hoist []ir.OpID
}

// split partitions the ops following start, inclusive, up to the last op
// depending on v. Dependents use v, directly or through an earlier
// dependent. Independent ops between dependents are hoisted in front of the
// loop, except that a run containing a side effect ends the loop and the
// dependents after it get a loop of their own, unless one of them reads a
// value produced before the run. escapes is set when the block terminator
// reads a dependent value.
func split(m *ir.Module, start ir.OpID, v ir.ValueID) (segs []segment, escapes bool) {
	tainted := map[ir.ValueID]int{v: -1}
	var deps []ir.OpID
	var gaps [][]ir.OpID // gaps[i] precedes deps[i+1]
	var between []ir.OpID
	// floor[j] is the lowest dependent index whose results deps[j] reads, -1
	// when it reads only v.
	var floor []int
	for cur := start; cur != 0; cur = m.Next(cur) {
		if m.Has(cur, ir.IsTerminator) {
			escapes, _ = reads(m, cur, tainted)
			break
		}
		hit, low := reads(m, cur, tainted)
		if !hit {
			between = append(between, cur)
			continue
		}
		if len(deps) > 0 {
			gaps = append(gaps, between)
		}
		between = nil
		j := len(deps)
		deps = append(deps, cur)
		floor = append(floor, low)
		for _, dv := range m.Results(cur) {
			tainted[dv] = j
		}
		for _, inner := range m.Collect(cur, nil) {
			for _, dv := range m.Results(inner) {
				tainted[dv] = j
			}
		}
	}
	if len(deps) == 0 {
		return nil, escapes
	}

	cut := make([]bool, len(gaps))
	for i, g := range gaps {
		for _, o := range g {
			if !pure(m, o) {
				cut[i] = true
			}
		}
	}
	for j, low := range floor {
		for i := low; i >= 0 && i < j; i++ {
			cut[i] = false
		}
	}

	seg := segment{deps: []ir.OpID{deps[0]}}
	for i, g := range gaps {
		if cut[i] {
			segs = append(segs, seg)
			seg = segment{}
		} else {
			seg.hoist = append(seg.hoist, g...)
		}
		seg.deps = append(seg.deps, deps[i+1])
	}
	return append(segs, seg), escapes
}

// reads reports whether op or anything nested in it reads a tainted value,
// and the lowest dependent index among those read (-1 for none).
func reads(m *ir.Module, op ir.OpID, tainted map[ir.ValueID]int) (hit bool, low int) {
	low = -1
	for _, o := range append([]ir.OpID{op}, m.Collect(op, nil)...) {
		for _, v := range m.Operands(o) {
			t, ok := tainted[v]
			if !ok {
				continue
			}
			hit = true
			if t >= 0 && (low < 0 || t < low) {
				low = t
			}
		}
	}
	return hit, low
}

// pure reports whether op and everything nested in it are side-effect free.
func pure(m *ir.Module, op ir.OpID) bool {
	for _, o := range append([]ir.OpID{op}, m.Collect(op, nil)...) {
		if !m.Has(o, ir.Pure) && !m.Has(o, ir.IsTerminator) {
			return false
		}
	}
	return true
}
