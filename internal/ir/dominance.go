package ir

// DominatesValue reports whether v is available at use.
//
// The check climbs from use through its enclosing ops. It succeeds on
// reaching the block that defines v, provided the definition precedes the
// ancestor in that block (block arguments precede everything). A value
// defined in one region of an op is also available in that op's later
// regions. Leaving a barrier region, or running out of ancestors, fails. A
// value never dominates ops nested inside its own defining op.
func (m *Module) DominatesValue(v ValueID, use OpID) bool {
	n := m.value(v)
	if n.dead {
		return false
	}
	if n.op != 0 && m.IsAncestor(n.op, use) {
		return false
	}
	return m.reaches(m.DefBlock(v), n.op, use)
}

// Dominates is the op form: def's position dominates use.
func (m *Module) Dominates(def, use OpID) bool {
	if m.IsAncestor(def, use) {
		return false
	}
	return m.reaches(m.op(def).parent, def, use)
}

func (m *Module) reaches(defBlock BlockID, defOp OpID, use OpID) bool {
	if defBlock == 0 {
		return false
	}
	for cur := use; cur != 0; {
		b := m.op(cur).parent
		if b == 0 {
			return false
		}
		if b == defBlock {
			return defOp == 0 || m.indexIn(b, defOp) < m.indexIn(b, cur)
		}
		r := m.block(b).parent
		if r == 0 || m.region(r).barrier {
			return false
		}
		cur = m.region(r).parent
		if m.earlierRegion(cur, m.block(defBlock).parent, r) {
			return true
		}
	}
	return false
}

// earlierRegion reports whether def and use are both regions of op with def
// coming first.
func (m *Module) earlierRegion(op OpID, def, use RegionID) bool {
	if def == 0 || m.region(def).parent != op {
		return false
	}
	for _, r := range m.op(op).regions {
		switch r {
		case def:
			return true
		case use:
			return false
		}
	}
	return false
}

// BarrierBetween reports whether use sits inside a barrier region that does
// not also contain the definition of v.
func (m *Module) BarrierBetween(v ValueID, use OpID) bool {
	defBlock := m.DefBlock(v)
	for cur := use; cur != 0; cur = m.ParentOp(cur) {
		b := m.op(cur).parent
		if b == 0 || b == defBlock {
			return false
		}
		if r := m.block(b).parent; r != 0 && m.region(r).barrier {
			return true
		}
	}
	return false
}
