// Package backend renders a fully lowered rule module as text.
//
// The output is deterministic: values are numbered var0, var1, ... in
// definition order across the whole module, parameters keep their names,
// and attributes print as Enum::case tags. Ops that lowering should have
// removed are refused with a *ContractError before anything is written.
package backend

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/rulec/internal/dialect"
	"github.com/roach88/rulec/internal/ir"
)

// ContractError is an op the back end cannot render.
type ContractError struct {
	Op   ir.OpID
	Kind string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s (op %d) must be lowered before rendering", e.Kind, e.Op)
}

// AsContractError extracts a ContractError from err's chain.
func AsContractError(err error) (*ContractError, bool) {
	var ce *ContractError
	ok := errors.As(err, &ce)
	return ce, ok
}

// precursors are the kinds lowering removes.
var precursors = map[ir.Kind]bool{
	dialect.OneOf:                  true,
	dialect.SuchSubject:            true,
	dialect.CapturedReference:      true,
	dialect.MakeReferrable:         true,
	dialect.ConditionalEffect:      true,
	dialect.AdditionalEffect:       true,
	dialect.UntilEffect:            true,
	dialect.TimedEffect:            true,
	dialect.MakesAnAttack:          true,
	dialect.Destroys:               true,
	dialect.TargetedWith:           true,
	dialect.ObtainWeaponAbility:    true,
	dialect.ModifyCharacteristic:   true,
	dialect.ObtainInvulnerableSave: true,
}

// Check reports the first op of m the back end refuses.
func Check(m *ir.Module) error {
	for op := range m.Walk(m.Root()) {
		if precursors[m.Kind(op)] {
			return &ContractError{Op: op, Kind: m.Name(op)}
		}
	}
	return nil
}

// Render writes m to w.
func Render(w io.Writer, m *ir.Module) error {
	s, err := RenderString(m)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

// RenderString returns the text of m.
func RenderString(m *ir.Module) (string, error) {
	if err := Check(m); err != nil {
		return "", err
	}
	r := &renderer{m: m, names: map[ir.ValueID]string{}}
	for i, op := range m.Ops(m.Body()) {
		if i > 0 {
			r.out.WriteByte('\n')
		}
		if err := r.op(op); err != nil {
			return "", err
		}
	}
	return r.out.String(), nil
}

type renderer struct {
	m      *ir.Module
	out    strings.Builder
	names  map[ir.ValueID]string
	next   int
	indent int
	lines  int
}

func (r *renderer) line(format string, args ...any) {
	r.out.WriteString(strings.Repeat("    ", r.indent))
	fmt.Fprintf(&r.out, format, args...)
	r.out.WriteByte('\n')
	r.lines++
}

// declare gives v the next var name, or its own name when it has one and
// named is set.
func (r *renderer) declare(v ir.ValueID, named bool) string {
	name := r.m.ValueName(v)
	if !named || name == "" {
		name = fmt.Sprintf("var%d", r.next)
		r.next++
	}
	r.names[v] = name
	return name
}

func (r *renderer) name(v ir.ValueID) string {
	if n, ok := r.names[v]; ok {
		return n
	}
	return fmt.Sprintf("<undefined %d>", v)
}

func (r *renderer) params(b ir.BlockID) string {
	parts := make([]string, 0, r.m.NumArgs(b))
	for _, a := range r.m.Args(b) {
		parts = append(parts, r.m.Type(a).String()+" "+r.declare(a, true))
	}
	return strings.Join(parts, ", ")
}

// flat renders the ops of b at the current level, skipping the
// terminator.
func (r *renderer) flat(b ir.BlockID) error {
	for _, op := range r.m.Ops(b) {
		if r.m.Kind(op) == dialect.Yield {
			continue
		}
		if err := r.op(op); err != nil {
			return err
		}
	}
	return nil
}

// nested renders b one level deeper. An empty body prints pass.
func (r *renderer) nested(b ir.BlockID) error {
	r.indent++
	defer func() { r.indent-- }()
	start := r.lines
	if err := r.flat(b); err != nil {
		return err
	}
	if r.lines == start {
		r.line("pass")
	}
	return nil
}

func (r *renderer) op(op ir.OpID) error {
	m := r.m
	switch m.Kind(op) {
	case dialect.Function, dialect.TemporaryEffect:
		sym, err := dialect.TextAttrOf(m, op, dialect.AttrSymName)
		if err != nil {
			return err
		}
		kw := "def"
		if m.Kind(op) == dialect.TemporaryEffect {
			kw = "global_effect"
		}
		body := dialect.Body(m, op, 0)
		r.line("%s %s(%s):", kw, sym, r.params(body))
		return r.nested(body)

	case dialect.CreateTemporaryEffect:
		callee, err := dialect.TextAttrOf(m, op, dialect.AttrCallee)
		if err != nil {
			return err
		}
		te, err := dialect.TimeEventOf(m, op)
		if err != nil {
			return err
		}
		r.line("create_temporary_effect(%s(%s), until=%s)", callee, r.list(m.Operands(op)), te.EventName())
		return nil

	case dialect.IfStatement:
		cond := dialect.Body(m, op, 0)
		if err := r.flat(cond); err != nil {
			return err
		}
		r.line("if %s:", r.name(dialect.Yielded(m, cond, 0)))
		return r.nested(dialect.Body(m, op, 1))

	case dialect.ForAllStatement:
		body := dialect.Body(m, op, 0)
		list := r.name(m.Operand(op, 0))
		r.line("for %s in %s:", r.declare(m.Arg(body, 0), false), list)
		return r.nested(body)

	case dialect.SelectSubject:
		cond := dialect.Body(m, op, 0)
		cand := m.Arg(cond, 0)
		r.line("act select(%s %s):", m.Type(cand), r.declare(cand, false))
		r.names[m.Result(op, 0)] = r.names[cand]
		r.indent++
		defer func() { r.indent-- }()
		if err := r.flat(cond); err != nil {
			return err
		}
		r.line("require %s", r.name(dialect.Yielded(m, cond, 0)))
		return nil

	case dialect.FilterList:
		return r.filter(op)

	case dialect.LeadedUnit:
		leader := r.name(m.Operand(op, 0))
		r.line("ref %s = %s.is_leading_unit()", r.declare(m.Result(op, 0), false), leader)
		r.line("ref %s = unit_of(%s)", r.declare(m.Result(op, 1), false), leader)
		return nil

	case dialect.Yield:
		return nil
	}

	text, err := r.expr(op)
	if err != nil {
		return err
	}
	if m.NumResults(op) == 0 {
		r.line("%s", text)
		return nil
	}
	r.line("ref %s = %s", r.declare(m.Result(op, 0), false), text)
	return nil
}

// filter collects the members of the base that pass the constraint.
func (r *renderer) filter(op ir.OpID) error {
	m := r.m
	base, cond := dialect.Body(m, op, 0), dialect.Body(m, op, 1)
	if err := r.flat(base); err != nil {
		return err
	}
	res := r.declare(m.Result(op, 0), false)
	r.line("ref %s = []", res)
	elem := m.Arg(cond, 0)
	r.line("for %s in %s:", r.declare(elem, false), r.name(dialect.Yielded(m, base, 0)))
	r.indent++
	defer func() { r.indent-- }()
	if err := r.flat(cond); err != nil {
		return err
	}
	r.line("if %s:", r.name(dialect.Yielded(m, cond, 0)))
	r.indent++
	r.line("%s.append(%s)", res, r.name(elem))
	r.indent--
	return nil
}

func (r *renderer) list(vs []ir.ValueID) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = r.name(v)
	}
	return strings.Join(parts, ", ")
}

// tags maps enum attributes onto their printed enum type.
var tags = map[string]string{
	dialect.AttrPlayer:          "Player",
	dialect.AttrKeyword:         "Keyword",
	dialect.AttrCharacteristic:  "Characteristic",
	dialect.AttrRoll:            "RollKind",
	dialect.AttrAbility:         "WeaponAbilityKind",
	dialect.AttrWeaponQualifier: "WeaponQualifierKind",
}

func (r *renderer) attr(op ir.OpID, name string) (string, error) {
	a, ok := r.m.Attr(op, name)
	if !ok {
		return "", fmt.Errorf("%s is missing attribute %q", r.m.Name(op), name)
	}
	if a.Kind() == ir.AttrInt {
		return fmt.Sprint(a.Int()), nil
	}
	if t, ok := tags[name]; ok {
		return t + "::" + a.Text(), nil
	}
	return a.Text(), nil
}

// call renders recv.method(args...) with attribute arguments appended.
func (r *renderer) call(op ir.OpID, format string, attrs ...string) (string, error) {
	args := make([]any, 0, r.m.NumOperands(op)+len(attrs))
	for _, v := range r.m.Operands(op) {
		args = append(args, r.name(v))
	}
	for _, name := range attrs {
		s, err := r.attr(op, name)
		if err != nil {
			return "", err
		}
		args = append(args, s)
	}
	return fmt.Sprintf(format, args...), nil
}

func (r *renderer) expr(op ir.OpID) (string, error) {
	m := r.m
	switch m.Kind(op) {
	case dialect.All:
		return fmt.Sprintf("all_%ss()", strings.ToLower(m.Type(m.Result(op, 0)).Elem().String())), nil
	case dialect.ThisSubject:
		return dialect.ThisParamName(m.Type(m.Result(op, 0))), nil
	case dialect.SubjectsIn:
		return r.call(op, "%s.models")
	case dialect.UnitOf:
		return r.call(op, "unit_of(%s)")
	case dialect.True:
		return "true", nil
	case dialect.And:
		return r.call(op, "%s and %s")
	case dialect.IsSame:
		return r.call(op, "%s == %s")
	case dialect.BelongsTo:
		return fmt.Sprintf("%s.contain(%s)", r.name(m.Operand(op, 1)), r.name(m.Operand(op, 0))), nil
	case dialect.HasKeyword:
		return r.call(op, "%s.has_keyword(%s)", dialect.AttrKeyword)
	case dialect.IsOwnedBy:
		return r.call(op, "%s.is_owned_by(%s)", dialect.AttrPlayer)
	case dialect.WithinRange:
		return r.call(op, "%s.is_within_range(%s, %s)", dialect.AttrDistance)
	case dialect.WithinEngagementRange:
		return r.call(op, "%s.is_in_engagement_range(%s)")
	case dialect.BelowHalfStrength:
		return r.call(op, "%s.is_below_half_strength()")
	case dialect.BelowStartingStrength:
		return r.call(op, "%s.is_below_starting_strength()")
	case dialect.IsBattleShocked:
		return r.call(op, "%s.is_battle_shocked()")
	case dialect.FellBack:
		return r.call(op, "%s.fell_back()")
	case dialect.IsAttackMadeWith:
		return r.call(op, "%s.is_made_with(%s)", dialect.AttrWeaponQualifier)
	case dialect.Leading:
		return r.call(op, "%s.is_leading(%s)")
	case dialect.RollAtLeast:
		return r.call(op, "%s >= %s", dialect.AttrValue)
	case dialect.RollDice:
		return r.call(op, "roll(%s)", dialect.AttrCount)

	case dialect.GiveCharacteristicModifier:
		return r.call(op, "add_characteristic_modifier(%s, %s, %s)", dialect.AttrCharacteristic, dialect.AttrQuantity)
	case dialect.GiveWeaponAbility:
		return r.call(op, "add_ability(%s, %s, %s)", dialect.AttrAbility, dialect.AttrWeaponQualifier)
	case dialect.GrantInvulnerableSave:
		return r.call(op, "add_invulnerable_save(%s, %s)", dialect.AttrValue)
	case dialect.ModifyRoll:
		return r.call(op, "%s.modify_roll(%s, %s)", dialect.AttrRoll, dialect.AttrQuantity)
	case dialect.GainCP:
		return r.call(op, "gain_cp(%s)", dialect.AttrQuantity)
	case dialect.ForbidCharge:
		return r.call(op, "forbid_charge(%s)")
	case dialect.BattleShockTest:
		return r.call(op, "battle_shock_test(%s)")
	}
	return "", &ContractError{Op: op, Kind: m.Name(op)}
}
