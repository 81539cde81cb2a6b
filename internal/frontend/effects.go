package frontend

import (
	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

var (
	sourceModel = dialect.Param{Name: dialect.ParamSourceModel, Type: ir.Model}
	targetUnit  = dialect.Param{Name: dialect.ParamTargetUnit, Type: ir.Unit}
	targetModel = dialect.Param{Name: dialect.ParamTargetModel, Type: ir.Model}
)

func (b *builder) effect(n *Node) error {
	switch n.Name {
	case "effects", "effect_seq":
		for _, c := range n.Args {
			if err := b.effect(c); err != nil {
				return err
			}
		}
		return nil
	case "effect", "single_effect":
		if err := b.arity(n, 1); err != nil {
			return err
		}
		return b.effect(n.Args[0])
	case "if_effect":
		return b.ifEffect(n)
	case "while_true_effect":
		return b.whileTrue(n)
	case "at_event":
		return b.atEvent(n)
	case "each_time":
		return b.eachTime(n)
	case "until_effect":
		return b.untilEffect(n)
	case "additional_effect":
		return b.additional(n)
	case "gain_cps":
		return b.gainCPs(n)
	case "subtract_effect":
		return b.modifyRoll(n, -1)
	case "add_effect":
		return b.modifyRoll(n, 1)
	case "worsen_characteristic":
		return b.characteristic(n, -1)
	case "improve_characteristic":
		return b.characteristic(n, 1)
	case "obtain_weapon_ability":
		return b.weaponAbility(n)
	case "invulnerable_save":
		return b.invulnerableSave(n)
	case "generate_battle_shock_test":
		return b.onSubject(n, dialect.BattleShockTest)
	case "cannot_charge":
		return b.onSubject(n, dialect.ForbidCharge)
	case "roll_dice":
		return b.rollDice(n)
	}
	return b.unknown(n, "effect")
}

func (b *builder) ifEffect(n *Node) error {
	if err := b.arity(n, 2); err != nil {
		return err
	}
	_, cond, then := dialect.BuildIf(b.at())
	if err := b.guard(cond, n.Args[0], nil); err != nil {
		return err
	}
	return b.body(then, n.Args[1], nil)
}

func (b *builder) whileTrue(n *Node) error {
	if err := b.arity(n, 2); err != nil {
		return err
	}
	op := dialect.Build(b.at(), dialect.ConditionalEffect, nil, nil)
	if err := b.guard(dialect.Body(b.m, op, 0), n.Args[0], nil); err != nil {
		return err
	}
	return b.body(dialect.Body(b.m, op, 1), n.Args[1], nil)
}

func (b *builder) atEvent(n *Node) error {
	if err := b.arity(n, 2); err != nil {
		return err
	}
	te, err := b.timeEvent(n.Args[0])
	if err != nil {
		return err
	}
	op := dialect.Build(b.at(), dialect.TimedEffect, nil, nil, te.Attrs()...)
	b.trueGuard(dialect.Body(b.m, op, 0))
	return b.body(dialect.Body(b.m, op, 1), n.Args[1], nil)
}

func (b *builder) untilEffect(n *Node) error {
	if err := b.arity(n, 2); err != nil {
		return err
	}
	te, err := b.timeEvent(n.Args[0])
	if err != nil {
		return err
	}
	op := dialect.Build(b.at(), dialect.UntilEffect, nil, nil, te.Attrs()...)
	return b.body(dialect.Body(b.m, op, 0), n.Args[1], nil)
}

func (b *builder) additional(n *Node) error {
	if err := b.arity(n, 1); err != nil {
		return err
	}
	op := dialect.Build(b.at(), dialect.AdditionalEffect, nil, nil)
	return b.body(dialect.Body(b.m, op, 0), n.Args[0], nil)
}

func (b *builder) eachTime(n *Node) error {
	if err := b.arity(n, 2); err != nil {
		return err
	}
	op, args, err := b.event(n.Args[0])
	if err != nil {
		return err
	}
	r, _ := dialect.EffectRegion(b.m, op)
	return b.body(b.m.EntryBlock(r), n.Args[1], args)
}

// event builds a filtered event and returns it with the arguments of its
// effect block.
func (b *builder) event(n *Node) (ir.OpID, map[string]ir.ValueID, error) {
	switch n.Name {
	case "makes_an_attack":
		return b.makesAnAttack(n)
	case "destroys":
		return b.destroys(n)
	case "targeted_with":
		return b.targetedWith(n)
	}
	return 0, nil, b.unknown(n, "event")
}

// filterOn fills blk with belongs_to(arg, subject n), the subject made
// referrable.
func (b *builder) filterOn(blk ir.BlockID, arg ir.ValueID, n *Node, args map[string]ir.ValueID) error {
	return b.in(blk, arg, args, func() error {
		s, err := b.subject(n)
		if err != nil {
			return err
		}
		b.referrable(s)
		dialect.BuildYield(b.at(), dialect.BuildBelongsTo(b.at(), arg, s))
		return nil
	})
}

func (b *builder) makesAnAttack(n *Node) (ir.OpID, map[string]ir.ValueID, error) {
	if err := b.arity(n, 1); err != nil {
		return 0, nil, err
	}
	op := dialect.Build(b.at(), dialect.MakesAnAttack, nil, nil)
	cond := dialect.Body(b.m, op, 0)
	args := b.params(cond, sourceModel, targetUnit)
	if err := b.filterOn(cond, args[sourceModel.Name], n.Args[0], args); err != nil {
		return 0, nil, err
	}
	return op, b.params(dialect.Body(b.m, op, 1), sourceModel, targetUnit), nil
}

func (b *builder) destroys(n *Node) (ir.OpID, map[string]ir.ValueID, error) {
	if err := b.arity(n, 2); err != nil {
		return 0, nil, err
	}
	op := dialect.Build(b.at(), dialect.Destroys, nil, nil)
	source, target := dialect.Body(b.m, op, 0), dialect.Body(b.m, op, 1)
	sargs := b.params(source, sourceModel)
	if err := b.filterOn(source, sargs[sourceModel.Name], n.Args[0], sargs); err != nil {
		return 0, nil, err
	}
	targs := b.params(target, targetModel)
	if err := b.filterOn(target, targs[targetModel.Name], n.Args[1], targs); err != nil {
		return 0, nil, err
	}
	return op, b.params(dialect.Body(b.m, op, 2), sourceModel, targetModel), nil
}

func (b *builder) targetedWith(n *Node) (ir.OpID, map[string]ir.ValueID, error) {
	if err := b.arity(n, 2); err != nil {
		return 0, nil, err
	}
	kind, err := b.enum(n.Args[1], dialect.AttrTargetKind)
	if err != nil {
		return 0, nil, err
	}
	op := dialect.Build(b.at(), dialect.TargetedWith, nil, nil, kind)
	cond := dialect.Body(b.m, op, 0)
	args := b.params(cond, targetUnit)
	if err := b.filterOn(cond, args[targetUnit.Name], n.Args[0], args); err != nil {
		return 0, nil, err
	}
	used := dialect.Param{Name: kind.Value.Text(), Type: ir.Stratagem}
	if used.Name == "ability" {
		used.Type = ir.Ability
	}
	return op, b.params(dialect.Body(b.m, op, 1), targetUnit, used), nil
}

func (b *builder) gainCPs(n *Node) error {
	if err := b.arity(n, 1); err != nil {
		return err
	}
	q, err := b.number(n.Args[0])
	if err != nil {
		return err
	}
	dialect.Build(b.at(), dialect.GainCP, nil, nil, intAttr(dialect.AttrQuantity, q))
	return nil
}

// modifyRoll changes a roll of the attack being resolved.
func (b *builder) modifyRoll(n *Node, sign int64) error {
	if err := b.arity(n, 2); err != nil {
		return err
	}
	q, err := b.number(n.Args[0])
	if err != nil {
		return err
	}
	roll, err := b.enum(n.Args[1], dialect.AttrRoll)
	if err != nil {
		return err
	}
	attack := dialect.BuildThis(b.at(), ir.Attack)
	dialect.Build(b.at(), dialect.ModifyRoll, []ir.ValueID{attack}, nil, roll, intAttr(dialect.AttrQuantity, sign*q))
	return nil
}

// beneficiary fills the grant region of an evaluate event with the subject
// n and gives it a literally true guard.
func (b *builder) beneficiary(op ir.OpID, n *Node) error {
	err := b.in(dialect.Body(b.m, op, 1), 0, nil, func() error {
		s, err := b.subject(n)
		if err != nil {
			return err
		}
		b.referrable(s)
		dialect.BuildYield(b.at(), s)
		return nil
	})
	if err != nil {
		return err
	}
	b.trueGuard(dialect.Body(b.m, op, 0))
	return nil
}

func (b *builder) characteristic(n *Node, sign int64) error {
	if err := b.arity(n, 3); err != nil {
		return err
	}
	char, err := b.enum(n.Args[0], dialect.AttrCharacteristic)
	if err != nil {
		return err
	}
	q, err := b.number(n.Args[2])
	if err != nil {
		return err
	}
	op := dialect.Build(b.at(), dialect.ModifyCharacteristic, nil, nil, char, intAttr(dialect.AttrQuantity, sign*q))
	return b.beneficiary(op, n.Args[1])
}

// weaponAbility accepts [qualifier, subject, ability] or [subject, ability]
// for weapons of any kind.
func (b *builder) weaponAbility(n *Node) error {
	if err := b.arity(n, 2, 3); err != nil {
		return err
	}
	qual := ir.NamedAttr{Name: dialect.AttrWeaponQualifier, Value: ir.EnumAttr("any")}
	args := n.Args
	if len(args) == 3 {
		var err error
		if qual, err = b.enum(args[0], dialect.AttrWeaponQualifier); err != nil {
			return err
		}
		args = args[1:]
	}
	ability, err := b.enum(args[1], dialect.AttrAbility)
	if err != nil {
		return err
	}
	op := dialect.Build(b.at(), dialect.ObtainWeaponAbility, nil, nil, ability, qual)
	return b.beneficiary(op, args[0])
}

func (b *builder) invulnerableSave(n *Node) error {
	if err := b.arity(n, 2); err != nil {
		return err
	}
	v, err := b.number(n.Args[1])
	if err != nil {
		return err
	}
	op := dialect.Build(b.at(), dialect.ObtainInvulnerableSave, nil, nil, intAttr(dialect.AttrValue, v))
	return b.beneficiary(op, n.Args[0])
}

func (b *builder) onSubject(n *Node, k ir.Kind) error {
	if err := b.arity(n, 1); err != nil {
		return err
	}
	s, err := b.subject(n.Args[0])
	if err != nil {
		return err
	}
	dialect.Build(b.at(), k, []ir.ValueID{s}, nil)
	return nil
}

// rollDice rolls count dice and guards each on_roll effect on the roll
// reaching its threshold.
func (b *builder) rollDice(n *Node) error {
	if len(n.Args) < 2 {
		return b.errorf(n, "roll_dice takes a dice count and at least one on_roll")
	}
	count, err := b.number(n.Args[0])
	if err != nil {
		return err
	}
	roll := dialect.Build(b.at(), dialect.RollDice, nil, []ir.Type{ir.Roll}, intAttr(dialect.AttrCount, count))
	r := b.m.Result(roll, 0)
	for _, c := range n.Args[1:] {
		if c.Name != "on_roll" {
			return b.unknown(c, "roll outcome")
		}
		if err := b.arity(c, 2); err != nil {
			return err
		}
		least, err := b.number(c.Args[0])
		if err != nil {
			return err
		}
		_, cond, then := dialect.BuildIf(b.at())
		at := ir.NewBuilder(b.m, ir.AtEnd(cond))
		hit := dialect.Build(at, dialect.RollAtLeast, []ir.ValueID{r}, []ir.Type{ir.Bool}, intAttr(dialect.AttrValue, least))
		dialect.BuildYield(at, b.m.Result(hit, 0))
		if err := b.body(then, c.Args[1], nil); err != nil {
			return err
		}
	}
	return nil
}

// timeEvent decodes a moment of the game clock. The player defaults to
// either player.
func (b *builder) timeEvent(n *Node) (dialect.TimeEvent, error) {
	te := dialect.TimeEvent{Player: dialect.PlayerAny}
	var parts []*Node
	switch n.Name {
	case "time_condition":
		if err := b.arity(n, 2); err != nil {
			return te, err
		}
		parts = n.Args
	case "player_time_condition":
		if err := b.arity(n, 3); err != nil {
			return te, err
		}
		p, err := b.enum(n.Args[0], dialect.AttrPlayer)
		if err != nil {
			return te, err
		}
		te.Player = dialect.Player(p.Value.Text())
		parts = n.Args[1:]
	case "oppo_step_condition":
		if err := b.arity(n, 1); err != nil {
			return te, err
		}
		in, err := b.enum(n.Args[0], dialect.AttrInstant)
		if err != nil {
			return te, err
		}
		te.Player, te.Instant, te.Qualifier = dialect.PlayerOpponent, dialect.TimeInstant(in.Value.Text()), dialect.QualifierDuring
		return te, nil
	default:
		return te, b.unknown(n, "time")
	}
	q, err := b.enum(parts[0], dialect.AttrQualifier)
	if err != nil {
		return te, err
	}
	in, err := b.enum(parts[1], dialect.AttrInstant)
	if err != nil {
		return te, err
	}
	te.Qualifier, te.Instant = dialect.TimeQualifier(q.Value.Text()), dialect.TimeInstant(in.Value.Text())
	return te, nil
}
