package canon

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

// LeadingFusion fuses leading(l, u), where u is either the unit of l or a
// choice among all units, with the derivation of u into one leaded_unit(l)
// yielding both the test and the unit. Later consumers of u read the fused
// unit.
type LeadingFusion struct{}

func (LeadingFusion) Name() string        { return "leading-fusion" }
func (LeadingFusion) Description() string { return "fuse a leading test with the unit it leads" }

func (LeadingFusion) Rewrite(m *ir.Module, op ir.OpID) (bool, error) {
	if m.Kind(op) != dialect.Leading {
		return false, nil
	}
	leader, unit := m.Operand(op, 0), m.Operand(op, 1)
	if !ledBy(m, leader, unit) {
		return false, nil
	}
	fused := dialect.Build(ir.NewBuilder(m, m.BeforeOp(op)), dialect.LeadedUnit,
		[]ir.ValueID{leader}, []ir.Type{ir.Bool, ir.Unit})
	led := m.Result(fused, 1)
	m.ReplaceUsesIf(unit, led, func(u ir.Use) bool {
		return u.Op != op && m.DominatesValue(led, u.Op)
	})
	if err := m.ReplaceOp(op, m.Result(fused, 0)); err != nil {
		return false, err
	}
	if !m.HasUses(unit) {
		if err := m.Erase(m.DefOp(unit)); err != nil {
			return false, err
		}
	}
	return true, nil
}

func ledBy(m *ir.Module, leader, unit ir.ValueID) bool {
	def := m.DefOp(unit)
	switch dialect.DefKind(m, unit) {
	case dialect.UnitOf:
		return m.Operand(def, 0) == leader
	case dialect.OneOf:
		set := dialect.Yielded(m, dialect.Body(m, def, 0), 0)
		return set != 0 && dialect.DefKind(m, set) == dialect.All && m.Type(set) == ir.ListOf(ir.Unit)
	}
	return false
}

// FilterToSubjectsIn rewrites the filter of all models by membership in a
// unit u into subjects_in(u).
type FilterToSubjectsIn struct{}

func (FilterToSubjectsIn) Name() string        { return "filter-to-subjects-in" }
func (FilterToSubjectsIn) Description() string { return "models of all that belong to u are u's models" }

func (FilterToSubjectsIn) Rewrite(m *ir.Module, op ir.OpID) (bool, error) {
	if m.Kind(op) != dialect.FilterList || m.Type(m.Result(op, 0)) != ir.ListOf(ir.Model) {
		return false, nil
	}
	base := dialect.Yielded(m, dialect.Body(m, op, 0), 0)
	if base == 0 || dialect.DefKind(m, base) != dialect.All {
		return false, nil
	}
	cond := dialect.Body(m, op, 1)
	member := dialect.SingleOp(m, cond)
	if member == 0 || m.Kind(member) != dialect.BelongsTo || m.NumArgs(cond) != 1 {
		return false, nil
	}
	unit := m.Operand(member, 1)
	if m.Operand(member, 0) != m.Arg(cond, 0) || m.Type(unit) != ir.Unit || !m.DominatesValue(unit, op) {
		return false, nil
	}
	models := dialect.BuildSubjectsIn(ir.NewBuilder(m, m.BeforeOp(op)), unit)
	return true, m.ReplaceOp(op, models)
}

// OptimizeFiltering runs the filtering patterns once over m and returns
// the number of rewrites.
func OptimizeFiltering(m *ir.Module) (int, error) {
	n := 0
	for _, p := range []Pattern{LeadingFusion{}, FilterToSubjectsIn{}} {
		k, err := apply(m, p)
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
