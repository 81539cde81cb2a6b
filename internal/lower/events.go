package lower

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
	"github.com/roach88/rulec/internal/sema"
)

// Region argument layouts of the event ops, as blueprint parameter names.
var eventArgs = map[ir.Kind][][]string{
	dialect.TimedEffect:   {nil, nil},
	dialect.MakesAnAttack: {{dialect.ParamSourceModel, dialect.ParamTargetUnit}, {dialect.ParamSourceModel, dialect.ParamTargetUnit}},
	dialect.Destroys:      {{dialect.ParamSourceModel}, {dialect.ParamTargetModel}, {dialect.ParamSourceModel, dialect.ParamTargetModel}},
}

// LowerEvents turns every event op into a named function guarded by one
// if_statement. Condition and filter regions are inlined into the guard
// and conjoined; the effect region becomes the guarded branch. Events are
// lowered in source order and must sit at the top level.
func LowerEvents(m *ir.Module) (int, error) {
	events := m.OpsWithTraits(m.Root(), ir.MappableOntoFunction)
	for _, op := range events {
		if m.ParentOp(op) != m.Root() {
			return 0, sema.Errorf(sema.ErrUnsupported, op, "%s nested inside %s cannot become a function",
				m.Name(op), m.Name(m.ParentOp(op)))
		}
		if err := lowerEvent(m, op); err != nil {
			return 0, err
		}
	}
	return len(events), nil
}

type eventFunc struct {
	m     *ir.Module
	bp    dialect.Blueprint
	body  ir.BlockID
	cond  ir.BlockID
	then  ir.BlockID
	guard []ir.ValueID
}

func (f *eventFunc) param(name string) ir.ValueID {
	return f.m.Arg(f.body, f.bp.Index(name))
}

func (f *eventFunc) params(names []string) []ir.ValueID {
	out := make([]ir.ValueID, 0, len(names))
	for _, n := range names {
		out = append(out, f.param(n))
	}
	return out
}

// addGuard inlines a boolean region at the end of the guard block.
func (f *eventFunc) addGuard(r ir.RegionID, args []ir.ValueID) error {
	vals, err := f.m.InlineRegion(r, ir.AtEnd(f.cond), args)
	if err != nil {
		return err
	}
	if len(vals) > 0 {
		f.guard = append(f.guard, vals[0])
	}
	return nil
}

func (f *eventFunc) finishGuard() {
	b := ir.NewBuilder(f.m, ir.AtEnd(f.cond))
	if len(f.guard) == 0 {
		f.guard = append(f.guard, dialect.BuildTrue(b))
	}
	g := f.guard[0]
	for _, v := range f.guard[1:] {
		g = dialect.BuildAnd(b, g, v)
	}
	dialect.BuildYield(b, g)
}

func lowerEvent(m *ir.Module, op ir.OpID) error {
	bp, err := dialect.BlueprintFor(m, op)
	if err != nil {
		return err
	}
	_, body := dialect.BuildFunction(ir.NewBuilder(m, m.BeforeOp(op)), bp)
	fb := ir.NewBuilder(m, ir.AtEnd(body))
	_, cond, then := dialect.BuildIf(fb)
	dialect.BuildYield(fb)
	f := &eventFunc{m: m, bp: bp, body: body, cond: cond, then: then}

	k := m.Kind(op)
	switch k {
	case dialect.TimedEffect, dialect.MakesAnAttack, dialect.Destroys:
		layout := eventArgs[k]
		last := len(layout) - 1
		for i := range last {
			if err := f.addGuard(m.Region(op, i), f.params(layout[i])); err != nil {
				return err
			}
		}
		f.finishGuard()
		if err := f.inlineEffect(m.Region(op, last), f.params(layout[last])); err != nil {
			return err
		}

	case dialect.TargetedWith:
		kind, err := dialect.TextAttrOf(m, op, dialect.AttrTargetKind)
		if err != nil {
			return err
		}
		if err := f.addGuard(m.Region(op, 0), f.params([]string{dialect.ParamTargetUnit})); err != nil {
			return err
		}
		f.finishGuard()
		if err := f.inlineEffect(m.Region(op, 1), f.params([]string{dialect.ParamTargetUnit, kind})); err != nil {
			return err
		}

	case dialect.ObtainWeaponAbility, dialect.ModifyCharacteristic, dialect.ObtainInvulnerableSave:
		if err := f.lowerEvaluate(op); err != nil {
			return err
		}

	default:
		return sema.Errorf(sema.ErrUnsupported, op, "no lowering for event %s", m.Name(op))
	}
	return m.Erase(op)
}

func (f *eventFunc) inlineEffect(r ir.RegionID, args []ir.ValueID) error {
	if _, err := f.m.InlineRegion(r, ir.AtEnd(f.then), args); err != nil {
		return err
	}
	dialect.BuildYield(ir.NewBuilder(f.m, ir.AtEnd(f.then)))
	return nil
}

// lowerEvaluate guards an evaluate event on the evaluated subject being
// one of the beneficiaries and grants the effect to the evaluated model.
func (f *eventFunc) lowerEvaluate(op ir.OpID) error {
	m := f.m
	if err := f.addGuard(m.Region(op, 0), nil); err != nil {
		return err
	}
	benef, err := m.InlineRegion(m.Region(op, 1), ir.AtEnd(f.cond), nil)
	if err != nil {
		return err
	}
	if len(benef) == 0 {
		return sema.Errorf(sema.ErrUnsupported, op, "%s names no beneficiary", m.Name(op))
	}
	b := ir.NewBuilder(m, ir.AtEnd(f.cond))
	who := benef[0]
	t := m.Type(who)
	evaluated := f.param(dialect.ParamEvaluatedModel)
	if t.Base == ir.TypeUnit {
		evaluated = f.param(dialect.ParamEvaluatedUnit)
	}
	if t.IsList() {
		f.guard = append(f.guard, dialect.BuildBelongsTo(b, evaluated, who))
	} else {
		f.guard = append(f.guard, dialect.BuildIsSame(b, evaluated, who))
	}
	f.finishGuard()

	grant, attrs := grantFor(m, op)
	tb := ir.NewBuilder(m, ir.AtEnd(f.then))
	dialect.Build(tb, grant, []ir.ValueID{f.param(dialect.ParamEvaluatedModel)}, nil, attrs...)
	dialect.BuildYield(tb)
	return nil
}

func grantFor(m *ir.Module, op ir.OpID) (ir.Kind, []ir.NamedAttr) {
	switch m.Kind(op) {
	case dialect.ObtainWeaponAbility:
		return dialect.GiveWeaponAbility, m.Attrs(op)
	case dialect.ModifyCharacteristic:
		return dialect.GiveCharacteristicModifier, m.Attrs(op)
	}
	return dialect.GrantInvulnerableSave, m.Attrs(op)
}
