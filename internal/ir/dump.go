package ir

import (
	"bytes"
	"fmt"
	"strings"
)

// Dump renders the module as an s-expression tree. Values are numbered in
// definition order as %0, %1, ... The format is for debugging and stage
// snapshots only.
func (m *Module) Dump() string {
	return m.DumpOp(m.root)
}

// DumpOp renders op and everything nested under it.
func (m *Module) DumpOp(op OpID) string {
	d := &dumper{m: m, names: map[ValueID]int{}}
	d.op(op, "")
	d.buf.WriteByte('\n')
	return d.buf.String()
}

type dumper struct {
	m     *Module
	buf   bytes.Buffer
	names map[ValueID]int
}

func (d *dumper) name(v ValueID) string {
	n, ok := d.names[v]
	if !ok {
		return "%?"
	}
	return fmt.Sprintf("%%%d", n)
}

func (d *dumper) define(v ValueID) string {
	d.names[v] = len(d.names)
	return fmt.Sprintf("%s:%s", d.name(v), d.m.values[v].typ)
}

func (d *dumper) op(op OpID, indent string) {
	m := d.m
	n := &m.ops[op]
	d.buf.WriteString(indent)
	d.buf.WriteByte('(')
	if len(n.results) > 0 {
		defs := make([]string, len(n.results))
		for i, r := range n.results {
			defs[i] = d.define(r)
		}
		d.buf.WriteString(strings.Join(defs, " "))
		d.buf.WriteString(" = ")
	}
	d.buf.WriteString(m.Name(op))
	for _, v := range n.operands {
		d.buf.WriteByte(' ')
		d.buf.WriteString(d.name(v))
	}
	if len(n.attrs) > 0 {
		parts := make([]string, len(n.attrs))
		for i, a := range n.attrs {
			parts[i] = a.Name + "=" + a.Value.String()
		}
		d.buf.WriteString(" {" + strings.Join(parts, " ") + "}")
	}
	for _, r := range n.regions {
		d.buf.WriteString("\n" + indent + "  (region")
		if m.regions[r].barrier {
			d.buf.WriteString(" barrier")
		}
		for _, b := range m.regions[r].blocks {
			d.buf.WriteString("\n" + indent + "    (block")
			for _, a := range m.blocks[b].args {
				d.buf.WriteByte(' ')
				d.buf.WriteString(d.define(a))
			}
			for _, child := range m.blocks[b].ops {
				d.buf.WriteByte('\n')
				d.op(child, indent+"      ")
			}
			d.buf.WriteByte(')')
		}
		d.buf.WriteByte(')')
	}
	d.buf.WriteByte(')')
}
