package ir

// Canonical returns the module as JSON-shaped data. Values are referred to
// by their definition order, so the encoding is independent of arena layout.
func (m *Module) Canonical() IRObject {
	e := &encoder{m: m, ids: map[ValueID]int64{}}
	return e.op(m.root)
}

type encoder struct {
	m   *Module
	ids map[ValueID]int64
}

func (e *encoder) define(v ValueID) IRValue {
	e.ids[v] = int64(len(e.ids))
	return IRObject{
		"id":   IRInt(e.ids[v]),
		"type": IRString(e.m.values[v].typ.String()),
	}
}

func (e *encoder) ref(v ValueID) IRValue {
	if id, ok := e.ids[v]; ok {
		return IRInt(id)
	}
	return IRInt(-1)
}

func (e *encoder) op(op OpID) IRObject {
	n := &e.m.ops[op]
	results := IRArray{}
	for _, r := range n.results {
		results = append(results, e.define(r))
	}
	operands := IRArray{}
	for _, v := range n.operands {
		operands = append(operands, e.ref(v))
	}
	attrs := IRArray{}
	for _, a := range n.attrs {
		attrs = append(attrs, IRArray{IRString(a.Name), encodeAttr(a.Value)})
	}
	regions := IRArray{}
	for _, r := range n.regions {
		blocks := IRArray{}
		for _, b := range e.m.regions[r].blocks {
			args := IRArray{}
			for _, a := range e.m.blocks[b].args {
				args = append(args, e.define(a))
			}
			ops := IRArray{}
			for _, child := range e.m.blocks[b].ops {
				ops = append(ops, e.op(child))
			}
			blocks = append(blocks, IRObject{"args": args, "ops": ops})
		}
		regions = append(regions, IRObject{
			"barrier": IRBool(e.m.regions[r].barrier),
			"blocks":  blocks,
		})
	}
	return IRObject{
		"kind":     IRString(e.m.Name(op)),
		"results":  results,
		"operands": operands,
		"attrs":    attrs,
		"regions":  regions,
	}
}

func encodeAttr(a Attr) IRValue {
	switch a.kind {
	case AttrInt:
		return IRObject{"int": IRInt(a.num)}
	case AttrEnum:
		return IRObject{"enum": IRString(a.str)}
	default:
		return IRObject{"string": IRString(a.str)}
	}
}
