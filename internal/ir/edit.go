package ir

// InsertPoint names a position in a block: immediately before Before, or at
// the end of Block when Before is 0.
type InsertPoint struct {
	Block  BlockID
	Before OpID
}

// AtEnd is the point after the last op of b.
func AtEnd(b BlockID) InsertPoint { return InsertPoint{Block: b} }

// AtStart is the point before the first op of b.
func (m *Module) AtStart(b BlockID) InsertPoint {
	ops := m.block(b).ops
	if len(ops) == 0 {
		return InsertPoint{Block: b}
	}
	return InsertPoint{Block: b, Before: ops[0]}
}

// BeforeOp is the point immediately before op.
func (m *Module) BeforeOp(op OpID) InsertPoint {
	return InsertPoint{Block: m.op(op).parent, Before: op}
}

// AfterOp is the point immediately after op.
func (m *Module) AfterOp(op OpID) InsertPoint {
	return InsertPoint{Block: m.op(op).parent, Before: m.Next(op)}
}

// BeforeTerminator is the point before b's terminator, or its end.
func (m *Module) BeforeTerminator(b BlockID) InsertPoint {
	return InsertPoint{Block: b, Before: m.Terminator(b)}
}

// Insert attaches a detached op at ip.
func (m *Module) Insert(op OpID, ip InsertPoint) error {
	n := m.op(op)
	if n.dead {
		return editErr(ErrErased, op, "cannot insert an erased op")
	}
	if n.parent != 0 {
		return editErr(ErrAttached, op, "op is already in block %d", n.parent)
	}
	if ip.Block == 0 {
		return editErr(ErrBadAnchor, op, "insert point has no block")
	}
	b := m.block(ip.Block)
	pos := len(b.ops)
	if ip.Before != 0 {
		if m.op(ip.Before).parent != ip.Block {
			return editErr(ErrBadAnchor, op, "anchor %d is not in block %d", ip.Before, ip.Block)
		}
		pos = m.indexIn(ip.Block, ip.Before)
	}
	b.ops = append(b.ops, 0)
	copy(b.ops[pos+1:], b.ops[pos:])
	b.ops[pos] = op
	n.parent = ip.Block
	return nil
}

// Detach unlinks op from its block. Uses are kept.
func (m *Module) Detach(op OpID) {
	n := m.op(op)
	if n.parent == 0 {
		return
	}
	b := m.block(n.parent)
	i := m.indexIn(n.parent, op)
	b.ops = append(b.ops[:i], b.ops[i+1:]...)
	n.parent = 0
}

// Move relocates op to ip. Moving an op in front of itself is a no-op.
func (m *Module) Move(op OpID, ip InsertPoint) error {
	if ip.Before == op {
		return nil
	}
	m.Detach(op)
	return m.Insert(op, ip)
}

// Erase destroys op and everything nested in it. It fails when any value
// defined in the subtree is still used outside of it.
func (m *Module) Erase(op OpID) error {
	n := m.op(op)
	if n.dead {
		return editErr(ErrErased, op, "op already erased")
	}
	inside := m.subtree(op)
	for o := range inside {
		for _, v := range m.definedBy(o) {
			for _, u := range m.values[v].uses {
				if _, ok := inside[u.Op]; !ok {
					return editErr(ErrLiveUses, op, "%s result still used by %s", m.Name(op), m.Name(u.Op))
				}
			}
		}
	}
	m.Detach(op)
	for o := range inside {
		on := &m.ops[o]
		for i, v := range on.operands {
			m.removeUse(v, Use{Op: o, Index: i})
		}
		for _, v := range m.definedBy(o) {
			m.values[v].dead = true
			m.values[v].uses = nil
		}
		for _, r := range on.regions {
			m.regions[r].dead = true
			for _, b := range m.regions[r].blocks {
				m.blocks[b].dead = true
			}
		}
		on.dead = true
	}
	return nil
}

// subtree returns op and every op nested under it.
func (m *Module) subtree(op OpID) map[OpID]struct{} {
	set := map[OpID]struct{}{op: {}}
	for o := range m.Walk(op) {
		set[o] = struct{}{}
	}
	return set
}

// definedBy lists op's results and the arguments of its blocks.
func (m *Module) definedBy(op OpID) []ValueID {
	n := &m.ops[op]
	vals := append([]ValueID(nil), n.results...)
	for _, r := range n.regions {
		for _, b := range m.regions[r].blocks {
			vals = append(vals, m.blocks[b].args...)
		}
	}
	return vals
}

// ReplaceAllUses redirects every use of old to repl.
func (m *Module) ReplaceAllUses(old, repl ValueID) {
	m.ReplaceUsesIf(old, repl, nil)
}

// ReplaceUsesIf redirects the uses of old selected by keep (all when nil).
func (m *Module) ReplaceUsesIf(old, repl ValueID, keep func(Use) bool) {
	if old == repl {
		return
	}
	m.checkValue(repl)
	for _, u := range m.Uses(old) {
		if keep != nil && !keep(u) {
			continue
		}
		m.SetOperand(u.Op, u.Index, repl)
	}
}

// SetOperand rebinds one operand slot.
func (m *Module) SetOperand(op OpID, i int, v ValueID) {
	n := m.op(op)
	old := n.operands[i]
	if old == v {
		return
	}
	m.checkValue(v)
	m.removeUse(old, Use{Op: op, Index: i})
	n.operands[i] = v
	m.addUse(v, Use{Op: op, Index: i})
}

// AppendOperand adds a trailing operand to op.
func (m *Module) AppendOperand(op OpID, v ValueID) {
	m.checkValue(v)
	n := m.op(op)
	n.operands = append(n.operands, v)
	m.addUse(v, Use{Op: op, Index: len(n.operands) - 1})
}

// ReplaceOp rewires every result of op onto vals and erases op.
func (m *Module) ReplaceOp(op OpID, vals ...ValueID) error {
	res := m.op(op).results
	if len(vals) != len(res) {
		return editErr(ErrArity, op, "replacing %d results with %d values", len(res), len(vals))
	}
	for i, r := range append([]ValueID(nil), res...) {
		m.ReplaceAllUses(r, vals[i])
	}
	return m.Erase(op)
}

// AppendBlockArg adds a trailing argument to b.
func (m *Module) AppendBlockArg(b BlockID, t Type) ValueID {
	return m.InsertBlockArg(b, len(m.block(b).args), t)
}

// InsertBlockArg adds an argument to b at position i.
func (m *Module) InsertBlockArg(b BlockID, i int, t Type) ValueID {
	v := m.newValue(valueNode{typ: t, block: b, index: i})
	bn := m.block(b)
	bn.args = append(bn.args, 0)
	copy(bn.args[i+1:], bn.args[i:])
	bn.args[i] = v
	m.reindexArgs(b)
	return v
}

// EraseBlockArg removes an unused argument from b.
func (m *Module) EraseBlockArg(b BlockID, i int) error {
	bn := m.block(b)
	v := bn.args[i]
	if m.HasUses(v) {
		return editErr(ErrLiveUses, m.BlockParentOp(b), "block argument %d still used", i)
	}
	bn.args = append(bn.args[:i], bn.args[i+1:]...)
	m.values[v].dead = true
	m.reindexArgs(b)
	return nil
}

func (m *Module) reindexArgs(b BlockID) {
	for i, v := range m.blocks[b].args {
		m.values[v].index = i
	}
}

// TakeBlock removes the first block of r and returns it detached.
func (m *Module) TakeBlock(r RegionID) BlockID {
	rn := m.region(r)
	if len(rn.blocks) == 0 {
		return 0
	}
	b := rn.blocks[0]
	rn.blocks = rn.blocks[1:]
	m.blocks[b].parent = 0
	return b
}

// AppendBlock attaches a detached block at the end of r.
func (m *Module) AppendBlock(r RegionID, b BlockID) {
	rn := m.region(r)
	rn.blocks = append(rn.blocks, b)
	m.block(b).parent = r
}

// InlineBlock splices the non-terminator ops of src in front of ip. The
// arguments of src are remapped positionally onto args. The terminator, if
// any, is erased and its operands returned. src is left empty and detached.
func (m *Module) InlineBlock(src BlockID, ip InsertPoint, args []ValueID) ([]ValueID, error) {
	sb := m.block(src)
	if len(args) != len(sb.args) {
		return nil, editErr(ErrArity, m.BlockParentOp(src), "block takes %d arguments, got %d", len(sb.args), len(args))
	}
	for i, a := range append([]ValueID(nil), sb.args...) {
		m.ReplaceAllUses(a, args[i])
	}
	var yielded []ValueID
	term := m.Terminator(src)
	if term != 0 {
		yielded = m.Operands(term)
		if err := m.Erase(term); err != nil {
			return nil, err
		}
	}
	for _, op := range m.Ops(src) {
		m.Detach(op)
		if err := m.Insert(op, ip); err != nil {
			return nil, err
		}
	}
	if r := sb.parent; r != 0 {
		rn := m.region(r)
		for i, b := range rn.blocks {
			if b == src {
				rn.blocks = append(rn.blocks[:i], rn.blocks[i+1:]...)
				break
			}
		}
	}
	for _, a := range sb.args {
		m.values[a].dead = true
	}
	sb.args = nil
	sb.parent = 0
	sb.dead = true
	return yielded, nil
}

// InlineRegion inlines the entry block of r in front of ip.
func (m *Module) InlineRegion(r RegionID, ip InsertPoint, args []ValueID) ([]ValueID, error) {
	b := m.EntryBlock(r)
	if b == 0 {
		return nil, editErr(ErrNotTerminated, m.RegionParent(r), "region has no block")
	}
	return m.InlineBlock(b, ip, args)
}
