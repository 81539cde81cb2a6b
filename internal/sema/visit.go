package sema

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

func (a *Analyzer) visit(op ir.OpID) error {
	m := a.m
	switch k := m.Kind(op); k {
	case dialect.MakeReferrable:
		a.push(m.Operand(op, 0))
		return m.Erase(op)

	case dialect.SuchSubject:
		return a.resolve(op)

	case dialect.OneOf:
		return a.visitOneOf(op)

	case dialect.FilterList:
		return a.visitFilter(op)

	case dialect.SelectSubject:
		return a.visitSelect(op)

	case dialect.BelongsTo:
		return a.visitBelongsTo(op)

	case dialect.IsSame:
		return a.visitIsSame(op)

	case dialect.CapturedReference:
		if err := a.infer(op, m.Result(op, 0), m.Type(m.Operand(op, 0))); err != nil {
			return err
		}
		return a.check(op)

	case dialect.All, dialect.ThisSubject, dialect.SubjectsIn, dialect.UnitOf, dialect.LeadedUnit,
		dialect.HasKeyword, dialect.IsOwnedBy, dialect.WithinRange, dialect.WithinEngagementRange,
		dialect.And, dialect.True, dialect.BelowHalfStrength, dialect.BelowStartingStrength,
		dialect.IsBattleShocked, dialect.FellBack, dialect.IsAttackMadeWith, dialect.Leading,
		dialect.RollAtLeast,
		dialect.GiveCharacteristicModifier, dialect.GiveWeaponAbility, dialect.GrantInvulnerableSave,
		dialect.ModifyRoll, dialect.GainCP, dialect.RollDice, dialect.ForbidCharge, dialect.BattleShockTest,
		dialect.Yield:
		return a.check(op)

	case dialect.TimedEffect, dialect.MakesAnAttack, dialect.Destroys, dialect.TargetedWith,
		dialect.ObtainWeaponAbility, dialect.ModifyCharacteristic, dialect.ObtainInvulnerableSave,
		dialect.IfStatement, dialect.ForAllStatement, dialect.ConditionalEffect,
		dialect.AdditionalEffect, dialect.UntilEffect:
		if err := a.visitRegions(op); err != nil {
			return err
		}
		return a.check(op)

	case dialect.Function, dialect.TemporaryEffect, dialect.CreateTemporaryEffect:
		return Errorf(ErrUnsupported, op, "%s is only produced by lowering", m.Name(op))

	default:
		return Errorf(ErrUnsupported, op, "analysis does not handle %s", m.Name(op))
	}
}

func (a *Analyzer) visitRegions(op ir.OpID) error {
	for _, r := range a.m.Regions(op) {
		for _, b := range a.m.Blocks(r) {
			if err := a.visitBlock(b); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Analyzer) visitBlock(b ir.BlockID) error {
	for _, op := range a.m.Ops(b) {
		if !a.m.IsLive(op) {
			continue
		}
		if err := a.visit(op); err != nil {
			return err
		}
	}
	return nil
}

// check validates op's operands against its signature.
func (a *Analyzer) check(op ir.OpID) error {
	m := a.m
	if !m.IsLive(op) {
		return nil
	}
	sig := dialect.SignatureOf(m.Kind(op))
	if !sig.Variadic && m.NumOperands(op) != len(sig.Operands) {
		return Errorf(ErrTypeMismatch, op, "%s takes %d operands, got %d", sig.Name, len(sig.Operands), m.NumOperands(op))
	}
	for i, v := range m.Operands(op) {
		t := m.Type(v)
		if t.IsUnknown() || i >= len(sig.Operands) {
			continue
		}
		if c := sig.Operands[i]; !c.Accepts(t) {
			return Errorf(ErrTypeMismatch, op, "%s operand %d wants %s, got %s", sig.Name, i, c, t)
		}
	}
	if m.Kind(op) == dialect.IsSame {
		lt, rt := m.Type(m.Operand(op, 0)), m.Type(m.Operand(op, 1))
		if !lt.IsUnknown() && !rt.IsUnknown() && lt != rt {
			return Errorf(ErrTypeMismatch, op, "is_same compares %s with %s", lt, rt)
		}
	}
	return nil
}

// resolve binds a such_subject to the most recent referrable subject of
// its type.
func (a *Analyzer) resolve(op ir.OpID) error {
	m := a.m
	want := m.Type(m.Result(op, 0))
	cand, ok := a.lookup(want)
	if !ok {
		if want.IsUnknown() {
			return Errorf(ErrDanglingReference, op, "\"it\" does not refer to any previously mentioned subject")
		}
		return Errorf(ErrDanglingReference, op, "no previously mentioned %s to refer to", want)
	}
	captured := !m.DominatesValue(cand, op)
	if captured {
		cand = dialect.BuildCapture(ir.NewBuilder(m, m.BeforeOp(op)), cand)
	}
	a.log.Debug("back-reference resolved", "type", m.Type(cand).String(), "captured", captured)
	return m.ReplaceOp(op, cand)
}

func (a *Analyzer) visitOneOf(op ir.OpID) error {
	m := a.m
	if err := a.visitRegions(op); err != nil {
		return err
	}
	base := dialect.Yielded(m, dialect.Body(m, op, 0), 0)
	if base == 0 {
		return Errorf(ErrUnsupported, op, "one_of base yields no subject")
	}
	t := m.Type(base)
	if t.IsList() {
		t = t.Elem()
	}
	return a.infer(op, m.Result(op, 0), t)
}

func (a *Analyzer) visitFilter(op ir.OpID) error {
	m := a.m
	baseBlock := dialect.Body(m, op, 0)
	if err := a.visitBlock(baseBlock); err != nil {
		return err
	}
	base := dialect.Yielded(m, baseBlock, 0)
	if base == 0 {
		return Errorf(ErrUnsupported, op, "filter_list base yields no subject")
	}
	elem, list := m.Type(base), ir.ListOf(m.Type(base))
	if elem.IsList() {
		elem, list = elem.Elem(), elem
	}
	if err := a.infer(op, m.Result(op, 0), list); err != nil {
		return err
	}
	cond := dialect.Body(m, op, 1)
	if m.NumArgs(cond) > 0 {
		if err := a.infer(op, m.Arg(cond, 0), elem); err != nil {
			return err
		}
	}
	if err := a.visitBlock(cond); err != nil {
		return err
	}
	return a.reduceFilter(op)
}

func (a *Analyzer) visitSelect(op ir.OpID) error {
	m := a.m
	if err := a.visitRegions(op); err != nil {
		return err
	}
	cond := dialect.Body(m, op, 0)
	if m.NumArgs(cond) == 0 {
		return Errorf(ErrUnsupported, op, "select_subject has no candidate argument")
	}
	return a.infer(op, m.Result(op, 0), m.Type(m.Arg(cond, 0)))
}
