package frontend

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

// unaryConditions test the current subject and take no children.
var unaryConditions = map[string]ir.Kind{
	"below_half_strength":         dialect.BelowHalfStrength,
	"below_its_starting_strength": dialect.BelowStartingStrength,
	"battle_shocked":              dialect.IsBattleShocked,
	"fell_back":                   dialect.FellBack,
}

func (b *builder) condition(n *Node) (ir.ValueID, error) {
	if k, ok := unaryConditions[n.Name]; ok {
		if err := b.arity(n, 0); err != nil {
			return 0, err
		}
		cur, err := b.current(n)
		if err != nil {
			return 0, err
		}
		return b.predicate(k, nil, cur), nil
	}
	switch n.Name {
	case "constraint":
		if err := b.arity(n, 1); err != nil {
			return 0, err
		}
		return b.condition(n.Args[0])
	case "is_condition", "boolean_expression":
		return b.isCondition(n)
	case "and":
		return b.and(n)
	case "enemy":
		return b.owned(n, dialect.PlayerOpponent)
	case "friendly":
		return b.owned(n, dialect.PlayerYou)
	case "within_constraint":
		return b.within(n)
	case "within_engagement_range":
		return b.engaged(n)
	case "keyworded_constraint":
		return b.keyword(n)
	case "subject_in_subject":
		return b.subjectIn(n)
	case "leading_constraint":
		return b.leading(n)
	case "attack_made_with":
		return b.madeWith(n)
	}
	return 0, b.unknown(n, "condition")
}

// isCondition applies predicate to subject. The subject is made
// referrable so the effect may call it "it".
func (b *builder) isCondition(n *Node) (ir.ValueID, error) {
	if err := b.arity(n, 2); err != nil {
		return 0, err
	}
	s, err := b.subject(n.Args[0])
	if err != nil {
		return 0, err
	}
	if n.Name == "is_condition" {
		b.referrable(s)
	}
	return b.about(s, func() (ir.ValueID, error) {
		return b.condition(n.Args[1])
	})
}

func (b *builder) and(n *Node) (ir.ValueID, error) {
	if len(n.Args) < 2 {
		return 0, b.errorf(n, "and takes at least 2 children, got %d", len(n.Args))
	}
	acc, err := b.condition(n.Args[0])
	if err != nil {
		return 0, err
	}
	for _, c := range n.Args[1:] {
		v, err := b.condition(c)
		if err != nil {
			return 0, err
		}
		acc = dialect.BuildAnd(b.at(), acc, v)
	}
	return acc, nil
}

func (b *builder) owned(n *Node, p dialect.Player) (ir.ValueID, error) {
	if err := b.arity(n, 0); err != nil {
		return 0, err
	}
	cur, err := b.current(n)
	if err != nil {
		return 0, err
	}
	attr := ir.NamedAttr{Name: dialect.AttrPlayer, Value: ir.EnumAttr(string(p))}
	return b.predicate(dialect.IsOwnedBy, []ir.NamedAttr{attr}, cur), nil
}

// within tests the current subject against [distance, subject]. Both
// sides become referrable.
func (b *builder) within(n *Node) (ir.ValueID, error) {
	if err := b.arity(n, 2); err != nil {
		return 0, err
	}
	d, err := b.number(n.Args[0])
	if err != nil {
		return 0, err
	}
	cur, err := b.current(n)
	if err != nil {
		return 0, err
	}
	other, err := b.subject(n.Args[1])
	if err != nil {
		return 0, err
	}
	b.referrable(cur)
	b.referrable(other)
	return b.predicate(dialect.WithinRange, []ir.NamedAttr{intAttr(dialect.AttrDistance, d)}, cur, other), nil
}

func (b *builder) engaged(n *Node) (ir.ValueID, error) {
	if err := b.arity(n, 1); err != nil {
		return 0, err
	}
	cur, err := b.current(n)
	if err != nil {
		return 0, err
	}
	other, err := b.subject(n.Args[0])
	if err != nil {
		return 0, err
	}
	return b.predicate(dialect.WithinEngagementRange, nil, cur, other), nil
}

func (b *builder) keyword(n *Node) (ir.ValueID, error) {
	if err := b.arity(n, 1); err != nil {
		return 0, err
	}
	kw, err := b.enum(n.Args[0], dialect.AttrKeyword)
	if err != nil {
		return 0, err
	}
	cur, err := b.current(n)
	if err != nil {
		return 0, err
	}
	return b.predicate(dialect.HasKeyword, []ir.NamedAttr{kw}, cur), nil
}

func (b *builder) subjectIn(n *Node) (ir.ValueID, error) {
	if err := b.arity(n, 1); err != nil {
		return 0, err
	}
	cur, err := b.current(n)
	if err != nil {
		return 0, err
	}
	set, err := b.subject(n.Args[0])
	if err != nil {
		return 0, err
	}
	return dialect.BuildBelongsTo(b.at(), cur, set), nil
}

// leading is the current subject leading the unit n.
func (b *builder) leading(n *Node) (ir.ValueID, error) {
	if err := b.arity(n, 1); err != nil {
		return 0, err
	}
	cur, err := b.current(n)
	if err != nil {
		return 0, err
	}
	unit, err := b.subject(n.Args[0])
	if err != nil {
		return 0, err
	}
	b.referrable(cur)
	b.referrable(unit)
	return b.predicate(dialect.Leading, nil, cur, unit), nil
}

func (b *builder) madeWith(n *Node) (ir.ValueID, error) {
	if err := b.arity(n, 1); err != nil {
		return 0, err
	}
	q, err := b.enum(n.Args[0], dialect.AttrWeaponQualifier)
	if err != nil {
		return 0, err
	}
	attack := dialect.BuildThis(b.at(), ir.Attack)
	return b.predicate(dialect.IsAttackMadeWith, []ir.NamedAttr{q}, attack), nil
}
