package dialect

import (
	"fmt"
	"slices"

	"github.com/roach88/rulec/internal/ir"
)

// Attribute names.
const (
	AttrPlayer          = "player"
	AttrInstant         = "instant"
	AttrQualifier       = "qualifier"
	AttrKeyword         = "keyword"
	AttrCharacteristic  = "characteristic"
	AttrRoll            = "roll"
	AttrAbility         = "ability"
	AttrWeaponQualifier = "weapon_qualifier"
	AttrTargetKind      = "target_kind"
	AttrDistance        = "distance"
	AttrValue           = "value"
	AttrQuantity        = "quantity"
	AttrCount           = "count"
	AttrSymName         = "sym_name"
	AttrCallee          = "callee"
)

var timeEventAttrs = []string{AttrPlayer, AttrInstant, AttrQualifier}

type Player string

const (
	PlayerYou      Player = "you"
	PlayerOpponent Player = "opponent"
	PlayerAny      Player = "any"
)

type TimeQualifier string

const (
	QualifierStart  TimeQualifier = "start"
	QualifierDuring TimeQualifier = "during"
	QualifierEnd    TimeQualifier = "end"
)

type TimeInstant string

const (
	InstantFightPhase       TimeInstant = "fight_phase"
	InstantCurrentPhase     TimeInstant = "current_phase"
	InstantBattleShockStep  TimeInstant = "battle_shock_step"
	InstantCommandPhase     TimeInstant = "command_phase"
	InstantShadowInTheWarp  TimeInstant = "shadow_in_the_warp"
	InstantShootingPhase    TimeInstant = "shooting_phase"
	InstantTurn             TimeInstant = "turn"
	InstantAnyBattleRound   TimeInstant = "any_battle_round"
	InstantFirstBattleRound TimeInstant = "first_battle_round"
	InstantBattle           TimeInstant = "battle"
	InstantMovementPhase    TimeInstant = "movement_phase"
)

// enumCases lists the accepted tags for each enum-valued attribute.
var enumCases = map[string][]string{
	AttrPlayer:          {"you", "opponent", "any"},
	AttrQualifier:       {"start", "during", "end"},
	AttrInstant:         {"fight_phase", "current_phase", "battle_shock_step", "command_phase", "shadow_in_the_warp", "shooting_phase", "turn", "any_battle_round", "first_battle_round", "battle", "movement_phase"},
	AttrKeyword:         {"character", "tyranid", "monster", "infantry", "termagants", "psyker", "neurogaunt", "synapse", "fly", "titanic"},
	AttrCharacteristic:  {"leadership", "move", "oc", "toughness", "save"},
	AttrRoll:            {"hit_roll", "wound_roll", "battle_shock_roll", "charge_roll", "advance_roll"},
	AttrAbility:         {"devastating_wounds", "lethal_hits", "assault", "sustained_hits"},
	AttrWeaponQualifier: {"melee", "ranged", "any"},
	AttrTargetKind:      {"stratagem", "ability"},
}

// IsEnumAttr reports whether name is an enum-valued attribute.
func IsEnumAttr(name string) bool {
	_, ok := enumCases[name]
	return ok
}

// ValidEnum reports whether tag is a case of the enum behind attribute name.
func ValidEnum(name, tag string) bool {
	return slices.Contains(enumCases[name], tag)
}

// EnumCases returns the cases of the enum behind attribute name.
func EnumCases(name string) []string {
	return slices.Clone(enumCases[name])
}

// TimeEvent names a moment of the game clock.
type TimeEvent struct {
	Player    Player
	Instant   TimeInstant
	Qualifier TimeQualifier
}

// EventName is the name of the function handling this moment.
func (te TimeEvent) EventName() string {
	return fmt.Sprintf("on_%s_%s_%s", te.Player, te.Instant, te.Qualifier)
}

// Attrs encodes te as op attributes.
func (te TimeEvent) Attrs() []ir.NamedAttr {
	return []ir.NamedAttr{
		{Name: AttrPlayer, Value: ir.EnumAttr(string(te.Player))},
		{Name: AttrInstant, Value: ir.EnumAttr(string(te.Instant))},
		{Name: AttrQualifier, Value: ir.EnumAttr(string(te.Qualifier))},
	}
}

// TimeEventOf decodes the time-event attributes of op.
func TimeEventOf(m *ir.Module, op ir.OpID) (TimeEvent, error) {
	var te TimeEvent
	for _, name := range timeEventAttrs {
		a, ok := m.Attr(op, name)
		if !ok {
			return te, fmt.Errorf("%s is missing attribute %q", m.Name(op), name)
		}
		switch name {
		case AttrPlayer:
			te.Player = Player(a.Text())
		case AttrInstant:
			te.Instant = TimeInstant(a.Text())
		case AttrQualifier:
			te.Qualifier = TimeQualifier(a.Text())
		}
	}
	return te, nil
}

// IntAttrOf reads a required integer attribute.
func IntAttrOf(m *ir.Module, op ir.OpID, name string) (int64, error) {
	a, ok := m.Attr(op, name)
	if !ok || a.Kind() != ir.AttrInt {
		return 0, fmt.Errorf("%s needs integer attribute %q", m.Name(op), name)
	}
	return a.Int(), nil
}

// TextAttrOf reads a required enum or string attribute.
func TextAttrOf(m *ir.Module, op ir.OpID, name string) (string, error) {
	a, ok := m.Attr(op, name)
	if !ok || (a.Kind() != ir.AttrEnum && a.Kind() != ir.AttrString) {
		return "", fmt.Errorf("%s needs attribute %q", m.Name(op), name)
	}
	return a.Text(), nil
}
