package dialect

import (
	"fmt"

	"github.com/roach88/rulec/internal/ir"
)

// Subject-producing kinds.
const (
	All ir.Kind = iota + 1
	OneOf
	FilterList
	SubjectsIn
	ThisSubject
	SuchSubject
	SelectSubject
	UnitOf
	LeadedUnit

	// Conditions.
	HasKeyword
	IsOwnedBy
	WithinRange
	WithinEngagementRange
	BelongsTo
	IsSame
	And
	True
	BelowHalfStrength
	BelowStartingStrength
	IsBattleShocked
	FellBack
	IsAttackMadeWith
	Leading
	RollAtLeast

	// Events.
	TimedEffect
	MakesAnAttack
	Destroys
	TargetedWith
	ObtainWeaponAbility
	ModifyCharacteristic
	ObtainInvulnerableSave

	// Effects.
	GiveCharacteristicModifier
	GiveWeaponAbility
	GrantInvulnerableSave
	ModifyRoll
	GainCP
	RollDice
	ForbidCharge
	BattleShockTest

	// Structural.
	Function
	IfStatement
	ForAllStatement
	Yield
	ConditionalEffect
	AdditionalEffect
	UntilEffect
	CapturedReference
	MakeReferrable
	TemporaryEffect
	CreateTemporaryEffect

	numKinds
)

// Family groups kinds by role.
type Family uint8

const (
	FamilyStructural Family = iota
	FamilySubject
	FamilyCondition
	FamilyEvent
	FamilyEffect
)

func (f Family) String() string {
	return [...]string{"structural", "subject", "condition", "event", "effect"}[f]
}

// Constraint restricts the type of an operand or result.
type Constraint uint8

const (
	AnyType Constraint = iota
	BoolValue
	UnitValue
	ModelValue
	EntityValue
	SubjectValue
	ListValue
	RollValue
	AttackValue
)

// Accepts reports whether t satisfies c.
func (c Constraint) Accepts(t ir.Type) bool {
	switch c {
	case AnyType:
		return true
	case BoolValue:
		return t == ir.Bool
	case UnitValue:
		return t == ir.Unit
	case ModelValue:
		return t == ir.Model
	case EntityValue:
		return t.IsEntity()
	case SubjectValue:
		return t.IsEntity() || (t.Depth == 1 && t.Elem().IsEntity())
	case ListValue:
		return t.IsList()
	case RollValue:
		return t == ir.Roll
	case AttackValue:
		return t == ir.Attack
	}
	return false
}

func (c Constraint) String() string {
	return [...]string{"any", "bool", "unit", "model", "entity", "subject", "list", "roll", "attack"}[c]
}

// Signature is the static shape of one kind.
type Signature struct {
	Name     string
	Family   Family
	Traits   ir.Traits
	Operands []Constraint
	// Variadic ops accept any number of operands after the fixed ones.
	Variadic bool
	Results  []Constraint
	Regions  int
	// Barrier marks region 0 as opaque to dominance.
	Barrier bool
	Attrs   []string
}

var (
	entity    = []Constraint{EntityValue}
	boolean   = []Constraint{BoolValue}
	anyResult = []Constraint{AnyType}
)

var signatures = [numKinds]Signature{
	All:           {Name: "all", Family: FamilySubject, Traits: ir.Pure | ir.CanDefineOperand, Results: []Constraint{ListValue}},
	OneOf:         {Name: "one_of", Family: FamilySubject, Traits: ir.Pure | ir.RecursivelySpeculatable | ir.CanDefineOperand, Results: anyResult, Regions: 1},
	FilterList:    {Name: "filter_list", Family: FamilySubject, Traits: ir.Pure | ir.RecursivelySpeculatable | ir.FilteringInterface | ir.CanDefineOperand, Results: anyResult, Regions: 2},
	SubjectsIn:    {Name: "subjects_in", Family: FamilySubject, Traits: ir.Pure, Operands: []Constraint{UnitValue}, Results: []Constraint{ListValue}},
	ThisSubject:   {Name: "this_subject", Family: FamilySubject, Traits: ir.Pure | ir.ContextDependent | ir.CanDefineOperand, Results: anyResult},
	SuchSubject:   {Name: "such_subject", Family: FamilySubject, Traits: ir.Pure, Results: anyResult},
	SelectSubject: {Name: "select_subject", Family: FamilySubject, Traits: ir.FilteringInterface, Results: anyResult, Regions: 1},
	UnitOf:        {Name: "unit_of", Family: FamilySubject, Traits: ir.Pure, Operands: []Constraint{ModelValue}, Results: []Constraint{UnitValue}},
	LeadedUnit:    {Name: "leaded_unit", Family: FamilySubject, Traits: ir.Pure, Operands: entity, Results: []Constraint{BoolValue, UnitValue}},

	HasKeyword:            {Name: "has_keyword", Family: FamilyCondition, Traits: ir.Pure, Operands: entity, Results: boolean, Attrs: []string{AttrKeyword}},
	IsOwnedBy:             {Name: "is_owned_by", Family: FamilyCondition, Traits: ir.Pure, Operands: entity, Results: boolean, Attrs: []string{AttrPlayer}},
	WithinRange:           {Name: "within_range", Family: FamilyCondition, Traits: ir.Pure, Operands: []Constraint{EntityValue, EntityValue}, Results: boolean, Attrs: []string{AttrDistance}},
	WithinEngagementRange: {Name: "within_engagement_range", Family: FamilyCondition, Traits: ir.Pure, Operands: []Constraint{EntityValue, EntityValue}, Results: boolean},
	BelongsTo:             {Name: "belongs_to", Family: FamilyCondition, Traits: ir.Pure, Operands: []Constraint{EntityValue, SubjectValue}, Results: boolean},
	IsSame:                {Name: "is_same", Family: FamilyCondition, Traits: ir.Pure, Operands: []Constraint{AnyType, AnyType}, Results: boolean},
	And:                   {Name: "and", Family: FamilyCondition, Traits: ir.Pure, Operands: []Constraint{BoolValue, BoolValue}, Results: boolean},
	True:                  {Name: "true", Family: FamilyCondition, Traits: ir.Pure, Results: boolean},
	BelowHalfStrength:     {Name: "below_half_strength", Family: FamilyCondition, Traits: ir.Pure, Operands: entity, Results: boolean},
	BelowStartingStrength: {Name: "below_starting_strength", Family: FamilyCondition, Traits: ir.Pure, Operands: entity, Results: boolean},
	IsBattleShocked:       {Name: "is_battle_shocked", Family: FamilyCondition, Traits: ir.Pure, Operands: entity, Results: boolean},
	FellBack:              {Name: "fell_back", Family: FamilyCondition, Traits: ir.Pure, Operands: entity, Results: boolean},
	IsAttackMadeWith:      {Name: "is_attack_made_with", Family: FamilyCondition, Traits: ir.Pure, Operands: []Constraint{AttackValue}, Results: boolean, Attrs: []string{AttrWeaponQualifier}},
	Leading:               {Name: "leading", Family: FamilyCondition, Traits: ir.Pure | ir.CanDefineOperand, Operands: []Constraint{EntityValue, AnyType}, Results: boolean},
	RollAtLeast:           {Name: "roll_at_least", Family: FamilyCondition, Traits: ir.Pure, Operands: []Constraint{RollValue}, Results: boolean, Attrs: []string{AttrValue}},

	TimedEffect:            {Name: "timed_effect", Family: FamilyEvent, Traits: ir.HasPreconditions | ir.MappableOntoFunction, Regions: 2, Attrs: timeEventAttrs},
	MakesAnAttack:          {Name: "makes_an_attack", Family: FamilyEvent, Traits: ir.HasPreconditions | ir.MappableOntoFunction | ir.FilteringInterface, Regions: 2},
	Destroys:               {Name: "destroys", Family: FamilyEvent, Traits: ir.HasPreconditions | ir.MappableOntoFunction | ir.FilteringInterface, Regions: 3},
	TargetedWith:           {Name: "targeted_with", Family: FamilyEvent, Traits: ir.HasPreconditions | ir.MappableOntoFunction | ir.FilteringInterface, Regions: 2, Attrs: []string{AttrTargetKind}},
	ObtainWeaponAbility:    {Name: "obtain_weapon_ability", Family: FamilyEvent, Traits: ir.HasPreconditions | ir.MappableOntoFunction, Regions: 2, Attrs: []string{AttrAbility, AttrWeaponQualifier}},
	ModifyCharacteristic:   {Name: "modify_characteristic", Family: FamilyEvent, Traits: ir.HasPreconditions | ir.MappableOntoFunction, Regions: 2, Attrs: []string{AttrCharacteristic, AttrQuantity}},
	ObtainInvulnerableSave: {Name: "obtain_invulnerable_save", Family: FamilyEvent, Traits: ir.HasPreconditions | ir.MappableOntoFunction, Regions: 2, Attrs: []string{AttrValue}},

	GiveCharacteristicModifier: {Name: "give_characteristic_modifier", Family: FamilyEffect, Operands: entity, Attrs: []string{AttrCharacteristic, AttrQuantity}},
	GiveWeaponAbility:          {Name: "give_weapon_ability", Family: FamilyEffect, Operands: entity, Attrs: []string{AttrAbility, AttrWeaponQualifier}},
	GrantInvulnerableSave:      {Name: "grant_invulnerable_save", Family: FamilyEffect, Operands: entity, Attrs: []string{AttrValue}},
	ModifyRoll:                 {Name: "modify_roll", Family: FamilyEffect, Operands: []Constraint{AttackValue}, Attrs: []string{AttrRoll, AttrQuantity}},
	GainCP:                     {Name: "gain_cp", Family: FamilyEffect, Attrs: []string{AttrQuantity}},
	RollDice:                   {Name: "roll_dice", Family: FamilyEffect, Results: []Constraint{RollValue}, Attrs: []string{AttrCount}},
	ForbidCharge:               {Name: "forbid_charge", Family: FamilyEffect, Operands: []Constraint{SubjectValue}},
	BattleShockTest:            {Name: "battle_shock_test", Family: FamilyEffect, Operands: []Constraint{SubjectValue}},

	Function:              {Name: "function", Traits: ir.FunctionLike, Regions: 1, Attrs: []string{AttrSymName}},
	IfStatement:           {Name: "if_statement", Regions: 2},
	ForAllStatement:       {Name: "for_all_statement", Operands: []Constraint{ListValue}, Regions: 1},
	Yield:                 {Name: "yield", Traits: ir.IsTerminator, Variadic: true},
	ConditionalEffect:     {Name: "conditional_effect", Traits: ir.HasPreconditions, Regions: 2},
	AdditionalEffect:      {Name: "additional_effect", Regions: 1},
	UntilEffect:           {Name: "until_effect", Regions: 1, Barrier: true, Attrs: timeEventAttrs},
	CapturedReference:     {Name: "captured_reference", Traits: ir.Pure, Operands: []Constraint{AnyType}, Results: anyResult},
	MakeReferrable:        {Name: "make_referrable", Operands: []Constraint{AnyType}},
	TemporaryEffect:       {Name: "temporary_effect", Traits: ir.FunctionLike, Regions: 1, Barrier: true, Attrs: []string{AttrSymName}},
	CreateTemporaryEffect: {Name: "create_temporary_effect", Variadic: true, Attrs: append([]string{AttrCallee}, timeEventAttrs...)},
}

var kindByName = func() map[string]ir.Kind {
	out := make(map[string]ir.Kind, numKinds)
	for k := ir.Kind(1); k < numKinds; k++ {
		out[signatures[k].Name] = k
	}
	return out
}()

// SignatureOf returns the signature of k. It panics on kinds outside the
// catalog.
func SignatureOf(k ir.Kind) *Signature {
	if k == ir.KindModule || k >= numKinds {
		panic(fmt.Sprintf("dialect: kind %d is not in the catalog", k))
	}
	return &signatures[k]
}

// Lookup resolves a kind by its name.
func Lookup(name string) (ir.Kind, bool) {
	k, ok := kindByName[name]
	return k, ok
}

// Kinds lists every catalog kind in declaration order.
func Kinds() []ir.Kind {
	out := make([]ir.Kind, 0, numKinds-1)
	for k := ir.Kind(1); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

type catalog struct{}

func (catalog) KindName(k ir.Kind) string      { return SignatureOf(k).Name }
func (catalog) KindTraits(k ir.Kind) ir.Traits { return SignatureOf(k).Traits }

// Catalog is the ir.Dialect for rule modules.
var Catalog ir.Dialect = catalog{}

// NewModule returns an empty rule module.
func NewModule() *ir.Module { return ir.NewModule(Catalog) }

// FamilyOf returns the family of op's kind.
func FamilyOf(m *ir.Module, op ir.OpID) Family {
	if m.Kind(op) == ir.KindModule {
		return FamilyStructural
	}
	return SignatureOf(m.Kind(op)).Family
}
