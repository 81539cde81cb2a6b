package dialect

import (
	"fmt"

	"github.com/roach88/rulec/internal/ir"
)

// Parameter names shared by every event function.
const (
	ParamThisUnit       = "this_unit"
	ParamThisModel      = "this_model"
	ParamEvaluatedUnit  = "evaluated_unit"
	ParamEvaluatedModel = "evaluated_model"
	ParamSourceModel    = "source_model"
	ParamTargetUnit     = "target_unit"
	ParamTargetModel    = "target_model"
	ParamAttack         = "attack"
)

// Param is one declared function parameter.
type Param struct {
	Name string
	Type ir.Type
}

// Blueprint is the named function an event lowers to.
type Blueprint struct {
	Name   string
	Params []Param
}

// Index returns the position of the parameter called name, or -1.
func (bp Blueprint) Index(name string) int {
	for i, p := range bp.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

var (
	thisParams     = []Param{{ParamThisUnit, ir.Unit}, {ParamThisModel, ir.Model}}
	evaluateParams = append(thisParams[:2:2], Param{ParamEvaluatedUnit, ir.Unit}, Param{ParamEvaluatedModel, ir.Model})
	attackParams   = append(thisParams[:2:2], Param{ParamSourceModel, ir.Model}, Param{ParamTargetUnit, ir.Unit}, Param{ParamAttack, ir.Attack})
	destroyParams  = append(thisParams[:2:2], Param{ParamSourceModel, ir.Model}, Param{ParamTargetModel, ir.Model})
)

// BlueprintFor returns the function signature for an event op.
func BlueprintFor(m *ir.Module, op ir.OpID) (Blueprint, error) {
	switch m.Kind(op) {
	case TimedEffect:
		te, err := TimeEventOf(m, op)
		if err != nil {
			return Blueprint{}, err
		}
		return Blueprint{Name: te.EventName(), Params: thisParams}, nil
	case MakesAnAttack:
		return Blueprint{Name: "on_attack", Params: attackParams}, nil
	case Destroys:
		return Blueprint{Name: "on_destroys", Params: destroyParams}, nil
	case TargetedWith:
		kind, err := TextAttrOf(m, op, AttrTargetKind)
		if err != nil {
			return Blueprint{}, err
		}
		t := ir.Stratagem
		if kind == "ability" {
			t = ir.Ability
		}
		params := append(thisParams[:2:2], Param{ParamTargetUnit, ir.Unit}, Param{kind, t})
		return Blueprint{Name: "on_targeted_with_" + kind, Params: params}, nil
	case ObtainWeaponAbility:
		return Blueprint{Name: "on_evaluate_weapon_abilities", Params: evaluateParams}, nil
	case ModifyCharacteristic:
		return Blueprint{Name: "on_evaluate_characteristics", Params: evaluateParams}, nil
	case ObtainInvulnerableSave:
		return Blueprint{Name: "on_evaluate_invulnerable_save", Params: evaluateParams}, nil
	}
	return Blueprint{}, fmt.Errorf("%s does not map onto a function", m.Name(op))
}

// ThisParamName is the function parameter a this_subject of type t reads.
func ThisParamName(t ir.Type) string {
	switch t {
	case ir.Unit:
		return ParamThisUnit
	case ir.Model:
		return ParamThisModel
	case ir.Attack:
		return ParamAttack
	}
	return ""
}
