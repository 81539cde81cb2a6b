package lower

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/sema"
)

// BindCaptures moves every top-level op that captures a value owned by
// another top-level op right after that value's definition, then binds
// the captures the definitions now dominate.
func BindCaptures(m *ir.Module) (int, error) {
	for _, top := range m.Ops(m.Body()) {
		if !m.IsLive(top) {
			continue
		}
		for _, c := range m.OpsOfKind(top, dialect.CapturedReference) {
			v := m.Operand(c, 0)
			owner := ownerOf(m, v)
			if owner == 0 || owner == top {
				continue
			}
			if err := m.Move(top, after(m, v)); err != nil {
				return 0, err
			}
			break
		}
	}
	return BindDominated(m)
}

// BindDominated replaces each captured_reference whose value dominates it
// with the value itself and returns how many were bound.
func BindDominated(m *ir.Module) (int, error) {
	n := 0
	for _, c := range m.OpsOfKind(m.Root(), dialect.CapturedReference) {
		if !m.IsLive(c) {
			continue
		}
		v := m.Operand(c, 0)
		if !m.DominatesValue(v, c) {
			continue
		}
		if err := m.ReplaceOp(c, v); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// RebindCaptures binds what can be bound and rejects any capture left
// outside a closure body.
func RebindCaptures(m *ir.Module) (int, error) {
	n, err := BindDominated(m)
	if err != nil {
		return n, err
	}
	if left := m.OpsOfKind(m.Root(), dialect.CapturedReference); len(left) > 0 {
		return n, sema.Errorf(sema.ErrUnbindableReference, left[0],
			"reference to %s can be neither bound nor captured", m.Type(m.Operand(left[0], 0)))
	}
	return n, nil
}

// ownerOf returns the top-level op holding the definition of v.
func ownerOf(m *ir.Module, v ir.ValueID) ir.OpID {
	if d := m.DefOp(v); d != 0 {
		return m.TopLevel(d)
	}
	owner := m.BlockParentOp(m.ArgOwner(v))
	if owner == 0 || owner == m.Root() {
		return 0
	}
	return m.TopLevel(owner)
}

// after is the point right after v becomes available.
func after(m *ir.Module, v ir.ValueID) ir.InsertPoint {
	if d := m.DefOp(v); d != 0 {
		return m.AfterOp(d)
	}
	return m.AtStart(m.ArgOwner(v))
}
