package lower

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

// Flatten removes the precursor conditional forms. A conditional_effect
// whose effect is a single op with preconditions merges its guard into that
// op; any other conditional_effect becomes an if_statement; an
// additional_effect is spliced into its parent block.
func Flatten(m *ir.Module) (int, error) {
	n := 0
	for _, op := range m.OpsOfKind(m.Root(), dialect.ConditionalEffect) {
		if !m.IsLive(op) {
			continue
		}
		inner := dialect.SingleOp(m, dialect.Body(m, op, 1))
		var err error
		if inner != 0 && m.Has(inner, ir.HasPreconditions) {
			err = mergeInto(m, op, inner)
		} else {
			err = toIf(m, op)
		}
		if err != nil {
			return n, err
		}
		n++
	}
	for _, op := range m.OpsOfKind(m.Root(), dialect.AdditionalEffect) {
		if !m.IsLive(op) {
			continue
		}
		if _, err := m.InlineRegion(m.Region(op, 0), m.BeforeOp(op), nil); err != nil {
			return n, err
		}
		if err := m.Erase(op); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func mergeInto(m *ir.Module, op, inner ir.OpID) error {
	guard, _ := dialect.ConditionRegion(m, inner)
	if err := dialect.MergeConditions(m, dialect.Body(m, op, 0), m.EntryBlock(guard)); err != nil {
		return err
	}
	if err := m.Move(inner, m.BeforeOp(op)); err != nil {
		return err
	}
	return m.Erase(op)
}

// toIf rehosts both regions of a conditional_effect on a new if_statement.
func toIf(m *ir.Module, op ir.OpID) error {
	st := dialect.State(dialect.IfStatement, nil, nil)
	for i := range st.Regions {
		st.Regions[i].Empty = true
	}
	stmt := m.Create(st)
	for i := range 2 {
		m.AppendBlock(m.Region(stmt, i), m.TakeBlock(m.Region(op, i)))
	}
	if err := m.Insert(stmt, m.BeforeOp(op)); err != nil {
		return err
	}
	return m.Erase(op)
}
