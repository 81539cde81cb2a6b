package canon

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

// Default is the standard pattern order.
func Default() []Pattern {
	return []Pattern{
		SubjectsInRebase{},
		UniversalMembership{},
		ChoiceEquality{},
		IfTrue{},
		AndTrue{},
		LeadingFusion{},
		FilterToSubjectsIn{},
		DeadCode{},
	}
}

// SubjectsInRebase rewrites belongs_to(x, subjects_in(u)) into
// belongs_to(x, u) when the projection has no other consumer.
type SubjectsInRebase struct{}

func (SubjectsInRebase) Name() string { return "subjects-in-rebase" }
func (SubjectsInRebase) Description() string {
	return "test membership against a unit instead of its member list"
}

func (SubjectsInRebase) Rewrite(m *ir.Module, op ir.OpID) (bool, error) {
	if m.Kind(op) != dialect.BelongsTo {
		return false, nil
	}
	set := m.Operand(op, 1)
	if dialect.DefKind(m, set) != dialect.SubjectsIn || m.NumUses(set) != 1 {
		return false, nil
	}
	def := m.DefOp(set)
	m.SetOperand(op, 1, m.Operand(def, 0))
	return true, m.Erase(def)
}

// UniversalMembership folds membership in the universal set to true.
type UniversalMembership struct{}

func (UniversalMembership) Name() string        { return "universal-membership" }
func (UniversalMembership) Description() string { return "membership in all is true" }

func (UniversalMembership) Rewrite(m *ir.Module, op ir.OpID) (bool, error) {
	if m.Kind(op) != dialect.BelongsTo || dialect.DefKind(m, m.Operand(op, 1)) != dialect.All {
		return false, nil
	}
	t := dialect.BuildTrue(ir.NewBuilder(m, m.BeforeOp(op)))
	return true, m.ReplaceOp(op, t)
}

// ChoiceEquality rewrites is_same(x, one_of(S)) into belongs_to(x, S).
type ChoiceEquality struct{}

func (ChoiceEquality) Name() string        { return "choice-equality" }
func (ChoiceEquality) Description() string { return "equality with a choice from S is membership in S" }

func (ChoiceEquality) Rewrite(m *ir.Module, op ir.OpID) (bool, error) {
	if m.Kind(op) != dialect.IsSame {
		return false, nil
	}
	x, choice := m.Operand(op, 0), m.Operand(op, 1)
	if dialect.DefKind(m, choice) != dialect.OneOf {
		x, choice = choice, x
	}
	if dialect.DefKind(m, choice) != dialect.OneOf || dialect.DefKind(m, x) == dialect.OneOf {
		return false, nil
	}
	set, err := dialect.ExpandChoice(m, m.DefOp(choice), m.BeforeOp(op))
	if err != nil {
		return false, err
	}
	member := dialect.BuildBelongsTo(ir.NewBuilder(m, m.BeforeOp(op)), x, set)
	return true, m.ReplaceOp(op, member)
}

// IfTrue splices both regions of an if_statement whose guard is the
// literal true in place of the statement.
type IfTrue struct{}

func (IfTrue) Name() string        { return "if-true" }
func (IfTrue) Description() string { return "an always-taken if is its body" }

func (IfTrue) Rewrite(m *ir.Module, op ir.OpID) (bool, error) {
	if m.Kind(op) != dialect.IfStatement {
		return false, nil
	}
	guard := dialect.Yielded(m, dialect.Body(m, op, 0), 0)
	if guard == 0 || dialect.DefKind(m, guard) != dialect.True {
		return false, nil
	}
	for i := range 2 {
		if _, err := m.InlineRegion(m.Region(op, i), m.BeforeOp(op), nil); err != nil {
			return false, err
		}
	}
	return true, m.Erase(op)
}

// AndTrue drops a literal true operand of and.
type AndTrue struct{}

func (AndTrue) Name() string        { return "and-true" }
func (AndTrue) Description() string { return "true is the identity of and" }

func (AndTrue) Rewrite(m *ir.Module, op ir.OpID) (bool, error) {
	if m.Kind(op) != dialect.And {
		return false, nil
	}
	lhs, rhs := m.Operand(op, 0), m.Operand(op, 1)
	switch {
	case dialect.DefKind(m, lhs) == dialect.True:
		return true, m.ReplaceOp(op, rhs)
	case dialect.DefKind(m, rhs) == dialect.True:
		return true, m.ReplaceOp(op, lhs)
	}
	return false, nil
}

// DeadCode erases unused side-effect-free ops.
type DeadCode struct{}

func (DeadCode) Name() string        { return "dead-code" }
func (DeadCode) Description() string { return "erase pure ops nobody reads" }

func (DeadCode) Rewrite(m *ir.Module, op ir.OpID) (bool, error) {
	if !m.Has(op, ir.Pure) || m.Has(op, ir.IsTerminator) || m.NumResults(op) == 0 {
		return false, nil
	}
	for _, v := range m.Results(op) {
		if m.HasUses(v) {
			return false, nil
		}
	}
	if err := m.Erase(op); err != nil {
		if ir.IsEditError(err, ir.ErrLiveUses) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
