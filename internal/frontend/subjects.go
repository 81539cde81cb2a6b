package frontend

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

func (b *builder) subject(n *Node) (ir.ValueID, error) {
	switch n.Name {
	case "subject":
		if err := b.arity(n, 1); err != nil {
			return 0, err
		}
		return b.subject(n.Args[0])
	case "this_model":
		t, err := b.oneType(n)
		if err != nil {
			return 0, err
		}
		return dialect.BuildThis(b.at(), t), nil
	case "such_subject_type":
		t, err := b.oneType(n)
		if err != nil {
			return 0, err
		}
		return dialect.Value(b.at(), dialect.SuchSubject, t), nil
	case "it_subject":
		if err := b.arity(n, 0); err != nil {
			return 0, err
		}
		return dialect.Value(b.at(), dialect.SuchSubject, ir.Unknown), nil
	case "any":
		t, err := b.oneType(n)
		if err != nil {
			return 0, err
		}
		return dialect.BuildAll(b.at(), t), nil
	case "select_subject":
		return b.selectSubject(n)
	case "constrained_subject":
		if err := b.arity(n, 2); err != nil {
			return 0, err
		}
		return b.filter(n.Args[0], n.Args[1])
	case "forward_constrained_subject":
		if err := b.arity(n, 2); err != nil {
			return 0, err
		}
		return b.filter(n.Args[1], n.Args[0])
	case "singular_subject":
		return b.singular(n)
	case "in_subject":
		return b.inSubject(n)
	case "event_subject":
		if err := b.arity(n, 1); err != nil {
			return 0, err
		}
		if v, ok := b.lookupArg(n.Args[0].Name); ok {
			return v, nil
		}
		return 0, b.errorf(n, "no event value %q in scope", n.Args[0].Name)
	}
	return 0, b.unknown(n, "subject")
}

func (b *builder) oneType(n *Node) (ir.Type, error) {
	if err := b.arity(n, 1); err != nil {
		return ir.Unknown, err
	}
	return b.typ(n.Args[0])
}

// selectSubject lets the player pick a candidate among subject n.
func (b *builder) selectSubject(n *Node) (ir.ValueID, error) {
	if err := b.arity(n, 1); err != nil {
		return 0, err
	}
	op, cond, cand := dialect.BuildSelect(b.at())
	res := b.m.Result(op, 0)
	b.referrable(res)
	err := b.in(cond, cand, nil, func() error {
		s, err := b.subject(n.Args[0])
		if err != nil {
			return err
		}
		dialect.BuildYield(b.at(), dialect.BuildBelongsTo(b.at(), cand, s))
		return nil
	})
	return res, err
}

// filter keeps the members of base satisfying constraint.
func (b *builder) filter(base, constraint *Node) (ir.ValueID, error) {
	op, bb, cb, elem := dialect.BuildFilter(b.at())
	err := b.in(bb, 0, nil, func() error {
		s, err := b.subject(base)
		if err != nil {
			return err
		}
		dialect.BuildYield(b.at(), s)
		return nil
	})
	if err != nil {
		return 0, err
	}
	err = b.in(cb, elem, nil, func() error {
		c, err := b.condition(constraint)
		if err != nil {
			return err
		}
		dialect.BuildYield(b.at(), c)
		return nil
	})
	return b.m.Result(op, 0), err
}

func (b *builder) singular(n *Node) (ir.ValueID, error) {
	if err := b.arity(n, 1); err != nil {
		return 0, err
	}
	op, base := dialect.BuildOneOf(b.at())
	err := b.in(base, 0, nil, func() error {
		s, err := b.subject(n.Args[0])
		if err != nil {
			return err
		}
		dialect.BuildYield(b.at(), s)
		return nil
	})
	return b.m.Result(op, 0), err
}

// inSubject is the models of a unit. The first child names the member
// type and only model is meaningful.
func (b *builder) inSubject(n *Node) (ir.ValueID, error) {
	if err := b.arity(n, 2); err != nil {
		return 0, err
	}
	if t, err := b.typ(n.Args[0]); err != nil {
		return 0, err
	} else if t != ir.Model {
		return 0, b.errorf(n.Args[0], "only models can be in a subject")
	}
	rhs, err := b.subject(n.Args[1])
	if err != nil {
		return 0, err
	}
	b.referrable(rhs)
	return dialect.BuildSubjectsIn(b.at(), rhs), nil
}
