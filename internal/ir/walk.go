package ir

import "iter"

// Walk yields every live op nested under root in pre-order, excluding root
// itself. Each block's op list is snapshotted when the walk enters it, so the
// current op may be erased or moved while iterating. Ops inserted into blocks
// the walk has not yet entered are visited.
func (m *Module) Walk(root OpID) iter.Seq[OpID] {
	return func(yield func(OpID) bool) {
		m.walk(root, yield)
	}
}

func (m *Module) walk(op OpID, yield func(OpID) bool) bool {
	for _, r := range m.op(op).regions {
		for _, b := range append([]BlockID(nil), m.regions[r].blocks...) {
			for _, child := range append([]OpID(nil), m.blocks[b].ops...) {
				if m.ops[child].dead {
					continue
				}
				if !yield(child) {
					return false
				}
				if m.ops[child].dead {
					continue
				}
				if !m.walk(child, yield) {
					return false
				}
			}
		}
	}
	return true
}

// WalkBlock yields the ops nested in b, including b's own ops, in pre-order.
func (m *Module) WalkBlock(b BlockID) iter.Seq[OpID] {
	return func(yield func(OpID) bool) {
		for _, op := range m.Ops(b) {
			if m.ops[op].dead {
				continue
			}
			if !yield(op) {
				return
			}
			if !m.ops[op].dead && !m.walk(op, yield) {
				return
			}
		}
	}
}

// Collect snapshots the ops under root that satisfy keep.
func (m *Module) Collect(root OpID, keep func(OpID) bool) []OpID {
	var out []OpID
	for op := range m.Walk(root) {
		if keep == nil || keep(op) {
			out = append(out, op)
		}
	}
	return out
}

// OpsOfKind snapshots the ops of kind k under root.
func (m *Module) OpsOfKind(root OpID, k Kind) []OpID {
	return m.Collect(root, func(op OpID) bool { return m.ops[op].kind == k })
}

// OpsWithTraits snapshots the ops under root carrying every trait in t.
func (m *Module) OpsWithTraits(root OpID, t Traits) []OpID {
	return m.Collect(root, func(op OpID) bool { return m.Has(op, t) })
}

// IsAncestor reports whether anc is op or encloses it.
func (m *Module) IsAncestor(anc, op OpID) bool {
	for cur := op; cur != 0; cur = m.ParentOp(cur) {
		if cur == anc {
			return true
		}
	}
	return false
}

// IsInside reports whether op is nested anywhere under region r.
func (m *Module) IsInside(op OpID, r RegionID) bool {
	for cur := op; cur != 0; cur = m.ParentOp(cur) {
		b := m.ops[cur].parent
		if b != 0 && m.blocks[b].parent == r {
			return true
		}
	}
	return false
}

// AncestorIn returns the ancestor of op (or op itself) whose parent block is
// b, or 0 when op is not nested under b.
func (m *Module) AncestorIn(op OpID, b BlockID) OpID {
	for cur := op; cur != 0; cur = m.ParentOp(cur) {
		if m.ops[cur].parent == b {
			return cur
		}
	}
	return 0
}

// EnclosingOf climbs from op and returns the nearest strict ancestor of kind k.
func (m *Module) EnclosingOf(op OpID, k Kind) OpID {
	for cur := m.ParentOp(op); cur != 0; cur = m.ParentOp(cur) {
		if m.ops[cur].kind == k {
			return cur
		}
	}
	return 0
}

// TopLevel returns the ancestor of op that sits directly in the module body.
func (m *Module) TopLevel(op OpID) OpID {
	return m.AncestorIn(op, m.Body())
}
