package sema

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

// reduceFilter folds a filter of a filter into one filter with a conjoined
// constraint, and a filter whose constraint is literally true into its base.
func (a *Analyzer) reduceFilter(op ir.OpID) error {
	m := a.m
	base := dialect.Body(m, op, 0)
	if inner := dialect.SingleOp(m, base); inner != 0 && m.Kind(inner) == dialect.FilterList {
		if err := m.Move(inner, m.BeforeOp(op)); err != nil {
			return err
		}
		if err := dialect.MergeConditions(m, dialect.Body(m, op, 1), dialect.Body(m, inner, 1)); err != nil {
			return err
		}
		return a.replace(op, m.Result(inner, 0))
	}
	c := dialect.SingleOp(m, dialect.Body(m, op, 1))
	if c == 0 || m.Kind(c) != dialect.True {
		return nil
	}
	if v := dialect.Yielded(m, base, 0); !m.Type(v).IsList() {
		return nil
	}
	vals, err := m.InlineBlock(base, m.BeforeOp(op), nil)
	if err != nil {
		return err
	}
	return a.replace(op, vals[0])
}

func (a *Analyzer) visitBelongsTo(op ir.OpID) error {
	m := a.m
	x, set := m.Operand(op, 0), m.Operand(op, 1)
	if m.Type(x).IsUnknown() && m.DefOp(x) == 0 {
		t := m.Type(set)
		if t.IsList() {
			t = t.Elem()
		}
		m.SetType(x, t)
	}
	if m.Type(x) == m.Type(set) {
		b := ir.NewBuilder(m, m.BeforeOp(op))
		same := dialect.BuildIsSame(b, x, set)
		if err := m.ReplaceOp(op, same); err != nil {
			return err
		}
		return a.visit(m.DefOp(same))
	}
	switch def := m.DefOp(set); dialect.DefKind(m, set) {
	case dialect.FilterList:
		return a.applyFilter(op, x, def)
	case dialect.SubjectsIn:
		if m.NumUses(set) == 1 && !a.referrable(set) {
			m.SetOperand(op, 1, m.Operand(def, 0))
			if err := m.Erase(def); err != nil {
				return err
			}
		}
	}
	return a.check(op)
}

// applyFilter rewrites belongs_to(x, filter_list(base, c)) into c(x),
// conjoined with membership of x in base unless base is the universal set.
func (a *Analyzer) applyFilter(op ir.OpID, x ir.ValueID, filter ir.OpID) error {
	m := a.m
	ip := m.BeforeOp(op)
	clone := m.Clone(filter)
	base, err := m.InlineRegion(m.Region(clone, 0), ip, nil)
	if err != nil {
		return err
	}
	cond, err := m.InlineRegion(m.Region(clone, 1), ip, []ir.ValueID{x})
	if err != nil {
		return err
	}
	if err := m.Erase(clone); err != nil {
		return err
	}
	result := cond[0]
	if dialect.DefKind(m, base[0]) != dialect.All {
		b := ir.NewBuilder(m, ip)
		member := dialect.BuildBelongsTo(b, x, base[0])
		result = dialect.BuildAnd(b, member, result)
		if err := a.visit(m.DefOp(member)); err != nil {
			return err
		}
	}
	if err := m.ReplaceOp(op, result); err != nil {
		return err
	}
	return a.eraseIfDead(filter)
}

// visitIsSame rewrites equality against a representative choice from S
// into membership in S.
func (a *Analyzer) visitIsSame(op ir.OpID) error {
	m := a.m
	lhs, rhs := m.Operand(op, 0), m.Operand(op, 1)
	x, choice := lhs, rhs
	if dialect.DefKind(m, choice) != dialect.OneOf {
		x, choice = rhs, lhs
	}
	if dialect.DefKind(m, choice) != dialect.OneOf {
		return a.check(op)
	}
	one := m.DefOp(choice)
	set, err := dialect.ExpandChoice(m, one, m.BeforeOp(op))
	if err != nil {
		return err
	}
	member := dialect.BuildBelongsTo(ir.NewBuilder(m, m.BeforeOp(op)), x, set)
	if err := m.ReplaceOp(op, member); err != nil {
		return err
	}
	if err := a.eraseIfDead(one); err != nil {
		return err
	}
	return a.visit(m.DefOp(member))
}
