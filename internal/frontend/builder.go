package frontend

import (
	"fmt"
	"strconv"

	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

// Build materializes every rule of doc in one module, in document order.
// Each rule records the top-level ops it produced.
func Build(doc *Document) (*ir.Module, []dialect.Rule, error) {
	m := dialect.NewModule()
	b := &builder{m: m}
	rules := make([]dialect.Rule, 0, len(doc.Rules))
	for _, r := range doc.Rules {
		before := m.NumOps(m.Body())
		b.rule = r.Name
		b.scopes = []scope{{b: ir.NewBuilder(m, ir.AtEnd(m.Body()))}}
		if err := b.effect(r.Tree); err != nil {
			return nil, nil, err
		}
		rules = append(rules, dialect.Rule{Name: r.Name, Text: r.Text, Ops: m.Ops(m.Body())[before:]})
	}
	return m, rules, nil
}

// scope is where the builder inserts and which subject bare constraints
// apply to. args names the event values visible in the scope.
type scope struct {
	b       *ir.Builder
	subject ir.ValueID
	args    map[string]ir.ValueID
}

type builder struct {
	m      *ir.Module
	rule   string
	scopes []scope
}

func (b *builder) at() *ir.Builder { return b.scopes[len(b.scopes)-1].b }

// in runs fn appending to blk. A zero subject keeps the enclosing one.
func (b *builder) in(blk ir.BlockID, subject ir.ValueID, args map[string]ir.ValueID, fn func() error) error {
	if subject == 0 {
		subject = b.scopes[len(b.scopes)-1].subject
	}
	b.scopes = append(b.scopes, scope{b: ir.NewBuilder(b.m, ir.AtEnd(blk)), subject: subject, args: args})
	defer func() { b.scopes = b.scopes[:len(b.scopes)-1] }()
	return fn()
}

// about runs fn with subject as the current subject.
func (b *builder) about(subject ir.ValueID, fn func() (ir.ValueID, error)) (ir.ValueID, error) {
	top := b.scopes[len(b.scopes)-1]
	b.scopes = append(b.scopes, scope{b: top.b, subject: subject})
	defer func() { b.scopes = b.scopes[:len(b.scopes)-1] }()
	return fn()
}

func (b *builder) current(n *Node) (ir.ValueID, error) {
	if v := b.scopes[len(b.scopes)-1].subject; v != 0 {
		return v, nil
	}
	return 0, b.errorf(n, "%s has no subject to apply to", n.Name)
}

func (b *builder) lookupArg(name string) (ir.ValueID, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if v, ok := b.scopes[i].args[name]; ok {
			return v, true
		}
	}
	return 0, false
}

func (b *builder) errorf(n *Node, format string, args ...any) error {
	return &CompileError{Field: "rules." + b.rule, Message: fmt.Sprintf(format, args...), Pos: n.Pos}
}

func (b *builder) unknown(n *Node, role string) error {
	return b.errorf(n, "%q is not a known %s construct", n.Name, role)
}

func (b *builder) arity(n *Node, want ...int) error {
	for _, w := range want {
		if len(n.Args) == w {
			return nil
		}
	}
	if len(want) == 1 {
		return b.errorf(n, "%s takes %d children, got %d", n.Name, want[0], len(n.Args))
	}
	return b.errorf(n, "%s takes %v children, got %d", n.Name, want, len(n.Args))
}

func (b *builder) number(n *Node) (int64, error) {
	if !n.Leaf {
		return 0, b.errorf(n, "expected a number, got %s", n.Name)
	}
	v, err := strconv.ParseInt(n.Name, 10, 64)
	if err != nil {
		return 0, b.errorf(n, "expected a number, got %q", n.Name)
	}
	return v, nil
}

// enum reads a token naming a case of the enum behind attribute name.
func (b *builder) enum(n *Node, name string) (ir.NamedAttr, error) {
	if !n.Leaf || !dialect.ValidEnum(name, n.Name) {
		return ir.NamedAttr{}, b.errorf(n, "%q is not a valid %s (want one of %v)", n.Name, name, dialect.EnumCases(name))
	}
	return ir.NamedAttr{Name: name, Value: ir.EnumAttr(n.Name)}, nil
}

func (b *builder) typ(n *Node) (ir.Type, error) {
	switch n.Name {
	case "unit":
		return ir.Unit, nil
	case "model":
		return ir.Model, nil
	}
	return ir.Unknown, b.errorf(n, "expected unit or model, got %q", n.Name)
}

func intAttr(name string, v int64) ir.NamedAttr {
	return ir.NamedAttr{Name: name, Value: ir.IntAttr(v)}
}

// predicate builds a condition of kind k and returns its result.
func (b *builder) predicate(k ir.Kind, attrs []ir.NamedAttr, operands ...ir.ValueID) ir.ValueID {
	op := dialect.Build(b.at(), k, operands, []ir.Type{ir.Bool}, attrs...)
	return b.m.Result(op, 0)
}

func (b *builder) referrable(v ir.ValueID) {
	dialect.BuildReferrable(b.at(), v)
}

// guard fills blk with the condition n and yields it.
func (b *builder) guard(blk ir.BlockID, n *Node, args map[string]ir.ValueID) error {
	return b.in(blk, 0, args, func() error {
		v, err := b.condition(n)
		if err != nil {
			return err
		}
		dialect.BuildYield(b.at(), v)
		return nil
	})
}

// trueGuard makes blk yield true.
func (b *builder) trueGuard(blk ir.BlockID) {
	at := ir.NewBuilder(b.m, ir.AtEnd(blk))
	dialect.BuildYield(at, dialect.BuildTrue(at))
}

// body fills blk with the effect n.
func (b *builder) body(blk ir.BlockID, n *Node, args map[string]ir.ValueID) error {
	return b.in(blk, 0, args, func() error {
		if err := b.effect(n); err != nil {
			return err
		}
		dialect.BuildYield(b.at())
		return nil
	})
}

// params appends typed, named arguments to blk.
func (b *builder) params(blk ir.BlockID, ps ...dialect.Param) map[string]ir.ValueID {
	out := make(map[string]ir.ValueID, len(ps))
	for _, p := range ps {
		v := b.m.AppendBlockArg(blk, p.Type)
		b.m.SetName(v, p.Name)
		out[p.Name] = v
	}
	return out
}
