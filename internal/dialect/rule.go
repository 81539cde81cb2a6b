package dialect

import (
	"fmt"

	"github.com/roach88/rulec/internal/ir"
)

// Rule is one source rule and the top-level ops it produced.
type Rule struct {
	Name string
	Text string
	Ops  []ir.OpID
}

// MergeConditions moves the guard computed by from to the start of into and
// makes into yield the conjunction of both guards. Arguments of from are
// rebound positionally onto the arguments of into. The terminator of from is
// left for the caller to erase with its owner.
func MergeConditions(m *ir.Module, from, into ir.BlockID) error {
	outer := Yielded(m, from, 0)
	term := m.Terminator(into)
	if outer == 0 || term == 0 || m.NumOperands(term) == 0 {
		return fmt.Errorf("merge conditions: both blocks must yield a guard")
	}
	for i, a := range m.Args(from) {
		if i < m.NumArgs(into) {
			m.ReplaceAllUses(a, m.Arg(into, i))
		}
	}
	anchor := m.AtStart(into)
	for _, op := range m.Ops(from) {
		if m.Has(op, ir.IsTerminator) {
			continue
		}
		if err := m.Move(op, anchor); err != nil {
			return err
		}
	}
	b := ir.NewBuilder(m, m.BeforeOp(term))
	m.SetOperand(term, 0, BuildAnd(b, outer, m.Operand(term, 0)))
	return nil
}

// ExpandChoice recomputes the set a one_of chooses from at ip and returns
// it. The one_of itself is left untouched.
func ExpandChoice(m *ir.Module, one ir.OpID, ip ir.InsertPoint) (ir.ValueID, error) {
	clone := m.Clone(one)
	set, err := m.InlineRegion(m.Region(clone, 0), ip, nil)
	if err != nil {
		return 0, err
	}
	if err := m.Erase(clone); err != nil {
		return 0, err
	}
	if len(set) == 0 {
		return 0, fmt.Errorf("%s base yields no subject", m.Name(one))
	}
	return set[0], nil
}
