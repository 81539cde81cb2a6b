package dialect

import "github.com/roach88/rulec/internal/ir"

// ConditionRegion returns the boolean guard region of a HasPreconditions op
// or an if_statement.
func ConditionRegion(m *ir.Module, op ir.OpID) (ir.RegionID, bool) {
	switch m.Kind(op) {
	case TimedEffect, MakesAnAttack, Destroys, TargetedWith,
		ObtainWeaponAbility, ModifyCharacteristic, ObtainInvulnerableSave,
		ConditionalEffect, IfStatement:
		return m.Region(op, 0), true
	}
	return 0, false
}

// EffectRegion returns the consequence region of an event or conditional.
func EffectRegion(m *ir.Module, op ir.OpID) (ir.RegionID, bool) {
	switch m.Kind(op) {
	case TimedEffect, MakesAnAttack, TargetedWith, ConditionalEffect, IfStatement:
		return m.Region(op, 1), true
	case Destroys:
		return m.Region(op, 2), true
	case AdditionalEffect, UntilEffect, ForAllStatement, Function, TemporaryEffect:
		return m.Region(op, 0), true
	}
	return 0, false
}

// BeneficiaryRegion returns the region of an evaluate event that yields the
// subjects receiving the grant.
func BeneficiaryRegion(m *ir.Module, op ir.OpID) (ir.RegionID, bool) {
	switch m.Kind(op) {
	case ObtainWeaponAbility, ModifyCharacteristic, ObtainInvulnerableSave:
		return m.Region(op, 1), true
	}
	return 0, false
}

// FilterRegions returns the regions of op whose block argument is tested
// for membership in a subject yielded by a belongs_to.
func FilterRegions(m *ir.Module, op ir.OpID) []ir.RegionID {
	switch m.Kind(op) {
	case MakesAnAttack, TargetedWith, SelectSubject:
		return []ir.RegionID{m.Region(op, 0)}
	case Destroys:
		return []ir.RegionID{m.Region(op, 0), m.Region(op, 1)}
	}
	return nil
}

// IsEvaluateEvent reports whether op grants something to evaluated subjects.
func IsEvaluateEvent(k ir.Kind) bool {
	return k == ObtainWeaponAbility || k == ModifyCharacteristic || k == ObtainInvulnerableSave
}
