package ir

// Clone deep-copies op and its regions. Values defined inside the copy are
// fresh; operands that refer to values outside op keep pointing at them.
// The copy is returned detached.
func (m *Module) Clone(op OpID) OpID {
	return m.cloneOp(op, map[ValueID]ValueID{})
}

// CloneWith is Clone with an initial value mapping, used to substitute
// external operands while copying.
func (m *Module) CloneWith(op OpID, mapping map[ValueID]ValueID) OpID {
	return m.cloneOp(op, mapping)
}

func (m *Module) cloneOp(op OpID, mapping map[ValueID]ValueID) OpID {
	src := m.op(op)
	st := OpState{Kind: src.kind, Attrs: src.attrs}
	for _, v := range src.operands {
		if nv, ok := mapping[v]; ok {
			v = nv
		}
		st.Operands = append(st.Operands, v)
	}
	for _, r := range src.results {
		st.Results = append(st.Results, m.values[r].typ)
	}
	srcRegions := append([]RegionID(nil), src.regions...)
	for _, r := range srcRegions {
		st.Regions = append(st.Regions, RegionSpec{Barrier: m.regions[r].barrier, Empty: true})
	}
	dst := m.Create(st)
	for i, r := range m.op(op).results {
		mapping[r] = m.ops[dst].results[i]
		m.values[m.ops[dst].results[i]].name = m.values[r].name
	}
	for i, r := range srcRegions {
		dr := m.ops[dst].regions[i]
		for _, b := range append([]BlockID(nil), m.regions[r].blocks...) {
			var types []Type
			for _, a := range m.blocks[b].args {
				types = append(types, m.values[a].typ)
			}
			nb := m.NewBlock(types...)
			for j, a := range m.blocks[b].args {
				na := m.blocks[nb].args[j]
				mapping[a] = na
				m.values[na].name = m.values[a].name
			}
			m.AppendBlock(dr, nb)
			for _, child := range append([]OpID(nil), m.blocks[b].ops...) {
				c := m.cloneOp(child, mapping)
				m.ops[c].parent = nb
				m.blocks[nb].ops = append(m.blocks[nb].ops, c)
			}
		}
	}
	return dst
}
