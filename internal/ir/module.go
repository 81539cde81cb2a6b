package ir

import "fmt"

type opNode struct {
	kind     Kind
	parent   BlockID
	operands []ValueID
	results  []ValueID
	attrs    []NamedAttr
	regions  []RegionID
	dead     bool
}

type regionNode struct {
	parent  OpID
	blocks  []BlockID
	barrier bool
	dead    bool
}

type blockNode struct {
	parent RegionID
	ops    []OpID
	args   []ValueID
	dead   bool
}

type valueNode struct {
	typ   Type
	op    OpID    // defining op, 0 for block arguments
	block BlockID // owning block for block arguments
	index int
	name  string
	uses  []Use
	dead  bool
}

// Module is the arena holding one compilation unit.
type Module struct {
	dialect Dialect
	ops     []opNode
	regions []regionNode
	blocks  []blockNode
	values  []valueNode
	root    OpID
}

// NewModule returns an empty module whose root op owns a single region
// with one empty block.
func NewModule(d Dialect) *Module {
	m := &Module{
		dialect: d,
		ops:     make([]opNode, 1),
		regions: make([]regionNode, 1),
		blocks:  make([]blockNode, 1),
		values:  make([]valueNode, 1),
	}
	m.root = m.Create(OpState{Kind: KindModule, Regions: []RegionSpec{{}}})
	return m
}

// Dialect returns the catalog the module was created with.
func (m *Module) Dialect() Dialect { return m.dialect }

// Root returns the module root operation.
func (m *Module) Root() OpID { return m.root }

// Body returns the single block of the module root.
func (m *Module) Body() BlockID { return m.EntryBlock(m.ops[m.root].regions[0]) }

// RegionSpec describes one region of an op under construction. Unless Empty
// is set the region gets one block whose arguments have the given types.
type RegionSpec struct {
	Args     []Type
	ArgNames []string
	Barrier  bool
	Empty    bool
}

// OpState describes an op to create.
type OpState struct {
	Kind     Kind
	Operands []ValueID
	Results  []Type
	Attrs    []NamedAttr
	Regions  []RegionSpec
}

// Create allocates a detached op. Operand uses are registered immediately.
func (m *Module) Create(st OpState) OpID {
	id := OpID(len(m.ops))
	m.ops = append(m.ops, opNode{kind: st.Kind})
	for i, v := range st.Operands {
		m.checkValue(v)
		m.ops[id].operands = append(m.ops[id].operands, v)
		m.addUse(v, Use{Op: id, Index: i})
	}
	for i, t := range st.Results {
		m.ops[id].results = append(m.ops[id].results, m.newValue(valueNode{typ: t, op: id, index: i}))
	}
	m.ops[id].attrs = append([]NamedAttr(nil), st.Attrs...)
	for _, rs := range st.Regions {
		r := m.newRegion(id, rs.Barrier)
		if rs.Empty {
			continue
		}
		b := m.NewBlock(rs.Args...)
		for i, name := range rs.ArgNames {
			if i < len(rs.Args) {
				m.SetName(m.blocks[b].args[i], name)
			}
		}
		m.AppendBlock(r, b)
	}
	return id
}

// NewBlock allocates a detached block with arguments of the given types.
func (m *Module) NewBlock(args ...Type) BlockID {
	b := BlockID(len(m.blocks))
	m.blocks = append(m.blocks, blockNode{})
	for i, t := range args {
		m.blocks[b].args = append(m.blocks[b].args, m.newValue(valueNode{typ: t, block: b, index: i}))
	}
	return b
}

func (m *Module) newRegion(parent OpID, barrier bool) RegionID {
	r := RegionID(len(m.regions))
	m.regions = append(m.regions, regionNode{parent: parent, barrier: barrier})
	m.ops[parent].regions = append(m.ops[parent].regions, r)
	return r
}

func (m *Module) newValue(n valueNode) ValueID {
	v := ValueID(len(m.values))
	m.values = append(m.values, n)
	return v
}

func (m *Module) op(id OpID) *opNode {
	if id == 0 || int(id) >= len(m.ops) {
		panic(fmt.Sprintf("ir: invalid op handle %d", id))
	}
	return &m.ops[id]
}

func (m *Module) block(id BlockID) *blockNode {
	if id == 0 || int(id) >= len(m.blocks) {
		panic(fmt.Sprintf("ir: invalid block handle %d", id))
	}
	return &m.blocks[id]
}

func (m *Module) region(id RegionID) *regionNode {
	if id == 0 || int(id) >= len(m.regions) {
		panic(fmt.Sprintf("ir: invalid region handle %d", id))
	}
	return &m.regions[id]
}

func (m *Module) value(id ValueID) *valueNode {
	if id == 0 || int(id) >= len(m.values) {
		panic(fmt.Sprintf("ir: invalid value handle %d", id))
	}
	return &m.values[id]
}

func (m *Module) checkValue(v ValueID) {
	if m.value(v).dead {
		panic(fmt.Sprintf("ir: use of erased value %d", v))
	}
}

// Operation accessors.

func (m *Module) Kind(op OpID) Kind { return m.op(op).kind }

// Name returns the dialect name of op's kind.
func (m *Module) Name(op OpID) string {
	k := m.op(op).kind
	if k == KindModule {
		return "module"
	}
	return m.dialect.KindName(k)
}

// Traits returns the traits of op's kind.
func (m *Module) Traits(op OpID) Traits {
	k := m.op(op).kind
	if k == KindModule {
		return NoTerminator
	}
	return m.dialect.KindTraits(k)
}

// Has reports whether op carries every trait in t.
func (m *Module) Has(op OpID, t Traits) bool { return m.Traits(op).Has(t) }

// IsLive reports whether op has not been erased.
func (m *Module) IsLive(op OpID) bool { return !m.op(op).dead }

func (m *Module) Operands(op OpID) []ValueID {
	return append([]ValueID(nil), m.op(op).operands...)
}

func (m *Module) Operand(op OpID, i int) ValueID { return m.op(op).operands[i] }
func (m *Module) NumOperands(op OpID) int        { return len(m.op(op).operands) }

func (m *Module) Results(op OpID) []ValueID {
	return append([]ValueID(nil), m.op(op).results...)
}

func (m *Module) Result(op OpID, i int) ValueID { return m.op(op).results[i] }
func (m *Module) NumResults(op OpID) int        { return len(m.op(op).results) }

func (m *Module) Regions(op OpID) []RegionID {
	return append([]RegionID(nil), m.op(op).regions...)
}

func (m *Module) Region(op OpID, i int) RegionID { return m.op(op).regions[i] }
func (m *Module) NumRegions(op OpID) int         { return len(m.op(op).regions) }

// Parent returns the block containing op, or 0 when detached.
func (m *Module) Parent(op OpID) BlockID { return m.op(op).parent }

// ParentOp returns the op owning the region that contains op, or 0.
func (m *Module) ParentOp(op OpID) OpID {
	b := m.op(op).parent
	if b == 0 {
		return 0
	}
	r := m.block(b).parent
	if r == 0 {
		return 0
	}
	return m.region(r).parent
}

// Attr looks up an attribute by name.
func (m *Module) Attr(op OpID, name string) (Attr, bool) {
	for _, a := range m.op(op).attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return Attr{}, false
}

func (m *Module) Attrs(op OpID) []NamedAttr {
	return append([]NamedAttr(nil), m.op(op).attrs...)
}

// SetAttr replaces or appends an attribute.
func (m *Module) SetAttr(op OpID, name string, a Attr) {
	n := m.op(op)
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = a
			return
		}
	}
	n.attrs = append(n.attrs, NamedAttr{Name: name, Value: a})
}

// Region accessors.

func (m *Module) Blocks(r RegionID) []BlockID {
	return append([]BlockID(nil), m.region(r).blocks...)
}

// EntryBlock returns the first block of r, or 0 when r is empty.
func (m *Module) EntryBlock(r RegionID) BlockID {
	if bs := m.region(r).blocks; len(bs) > 0 {
		return bs[0]
	}
	return 0
}

func (m *Module) RegionParent(r RegionID) OpID { return m.region(r).parent }
func (m *Module) IsBarrier(r RegionID) bool    { return m.region(r).barrier }

// Block accessors.

func (m *Module) Ops(b BlockID) []OpID {
	return append([]OpID(nil), m.block(b).ops...)
}

func (m *Module) NumOps(b BlockID) int { return len(m.block(b).ops) }

func (m *Module) Args(b BlockID) []ValueID {
	return append([]ValueID(nil), m.block(b).args...)
}

func (m *Module) Arg(b BlockID, i int) ValueID   { return m.block(b).args[i] }
func (m *Module) NumArgs(b BlockID) int          { return len(m.block(b).args) }
func (m *Module) BlockParent(b BlockID) RegionID { return m.block(b).parent }

// BlockParentOp returns the op owning b's region, or 0 when b is detached.
func (m *Module) BlockParentOp(b BlockID) OpID {
	r := m.block(b).parent
	if r == 0 {
		return 0
	}
	return m.region(r).parent
}

// Terminator returns the last op of b when it is a terminator, else 0.
func (m *Module) Terminator(b BlockID) OpID {
	ops := m.block(b).ops
	if len(ops) == 0 {
		return 0
	}
	last := ops[len(ops)-1]
	if m.Has(last, IsTerminator) {
		return last
	}
	return 0
}

// Next returns the op following op in its block, or 0.
func (m *Module) Next(op OpID) OpID {
	b := m.op(op).parent
	if b == 0 {
		return 0
	}
	ops := m.block(b).ops
	i := m.indexIn(b, op)
	if i+1 < len(ops) {
		return ops[i+1]
	}
	return 0
}

// Prev returns the op preceding op in its block, or 0.
func (m *Module) Prev(op OpID) OpID {
	b := m.op(op).parent
	if b == 0 {
		return 0
	}
	if i := m.indexIn(b, op); i > 0 {
		return m.block(b).ops[i-1]
	}
	return 0
}

// Index returns op's position in its block, or -1 when detached.
func (m *Module) Index(op OpID) int {
	b := m.op(op).parent
	if b == 0 {
		return -1
	}
	return m.indexIn(b, op)
}

func (m *Module) indexIn(b BlockID, op OpID) int {
	for i, o := range m.block(b).ops {
		if o == op {
			return i
		}
	}
	panic(fmt.Sprintf("ir: op %d not found in its parent block %d", op, b))
}

// Value accessors.

func (m *Module) Type(v ValueID) Type { return m.value(v).typ }

// SetType retypes a value in place.
func (m *Module) SetType(v ValueID, t Type) { m.value(v).typ = t }

// DefOp returns the op defining v, or 0 for a block argument.
func (m *Module) DefOp(v ValueID) OpID { return m.value(v).op }

// ArgOwner returns the block owning v when v is a block argument, else 0.
func (m *Module) ArgOwner(v ValueID) BlockID { return m.value(v).block }

// ValueIndex is the result or argument position of v.
func (m *Module) ValueIndex(v ValueID) int { return m.value(v).index }

// DefBlock returns the block in which v becomes available.
func (m *Module) DefBlock(v ValueID) BlockID {
	n := m.value(v)
	if n.op != 0 {
		return m.op(n.op).parent
	}
	return n.block
}

func (m *Module) Uses(v ValueID) []Use   { return append([]Use(nil), m.value(v).uses...) }
func (m *Module) NumUses(v ValueID) int  { return len(m.value(v).uses) }
func (m *Module) HasUses(v ValueID) bool { return len(m.value(v).uses) > 0 }

// IsLiveValue reports whether v has not been erased with its definition.
func (m *Module) IsLiveValue(v ValueID) bool { return !m.value(v).dead }

// Name hints are used by printers only.
func (m *Module) SetName(v ValueID, name string) { m.value(v).name = name }
func (m *Module) ValueName(v ValueID) string     { return m.value(v).name }

func (m *Module) addUse(v ValueID, u Use) {
	n := m.value(v)
	n.uses = append(n.uses, u)
}

func (m *Module) removeUse(v ValueID, u Use) {
	n := m.value(v)
	for i, x := range n.uses {
		if x == u {
			n.uses = append(n.uses[:i], n.uses[i+1:]...)
			return
		}
	}
}
