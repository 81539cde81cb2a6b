package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulec/internal/ir"
)

func TestTimeEventName(t *testing.T) {
	te := TimeEvent{Player: PlayerYou, Instant: InstantCommandPhase, Qualifier: QualifierStart}
	assert.Equal(t, "on_you_command_phase_start", te.EventName())
}

func TestTimeEventRoundTrip(t *testing.T) {
	m := NewModule()
	b := ir.NewBuilder(m, ir.AtEnd(m.Body()))
	te := TimeEvent{Player: PlayerOpponent, Instant: InstantFightPhase, Qualifier: QualifierEnd}
	op := Build(b, TimedEffect, nil, nil, te.Attrs()...)

	got, err := TimeEventOf(m, op)
	require.NoError(t, err)
	assert.Equal(t, te, got)

	_, err = TimeEventOf(m, Build(b, GainCP, nil, nil))
	assert.Error(t, err)
}

func TestBlueprints(t *testing.T) {
	m := NewModule()
	b := ir.NewBuilder(m, ir.AtEnd(m.Body()))

	tests := []struct {
		kind   ir.Kind
		attrs  []ir.NamedAttr
		name   string
		params []string
	}{
		{MakesAnAttack, nil, "on_attack", []string{"this_unit", "this_model", "source_model", "target_unit", "attack"}},
		{Destroys, nil, "on_destroys", []string{"this_unit", "this_model", "source_model", "target_model"}},
		{ObtainInvulnerableSave, nil, "on_evaluate_invulnerable_save", []string{"this_unit", "this_model", "evaluated_unit", "evaluated_model"}},
		{ObtainWeaponAbility, nil, "on_evaluate_weapon_abilities", []string{"this_unit", "this_model", "evaluated_unit", "evaluated_model"}},
		{TargetedWith, []ir.NamedAttr{{Name: AttrTargetKind, Value: ir.EnumAttr("stratagem")}}, "on_targeted_with_stratagem", []string{"this_unit", "this_model", "target_unit", "stratagem"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp, err := BlueprintFor(m, Build(b, tt.kind, nil, nil, tt.attrs...))
			require.NoError(t, err)
			assert.Equal(t, tt.name, bp.Name)
			var names []string
			for _, p := range bp.Params {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.params, names)
		})
	}
}

func TestBlueprintsDoNotShareBackingArrays(t *testing.T) {
	assert.Equal(t, 2, len(thisParams))
	assert.Equal(t, ParamEvaluatedUnit, evaluateParams[2].Name)
	assert.Equal(t, ParamSourceModel, attackParams[2].Name)
	assert.Equal(t, ParamSourceModel, destroyParams[2].Name)
}

func TestBlueprintRejectsNonEvents(t *testing.T) {
	m := NewModule()
	b := ir.NewBuilder(m, ir.AtEnd(m.Body()))
	_, err := BlueprintFor(m, Build(b, GainCP, nil, nil))
	assert.Error(t, err)
}

func TestEnums(t *testing.T) {
	assert.True(t, ValidEnum(AttrPlayer, "opponent"))
	assert.False(t, ValidEnum(AttrPlayer, "nobody"))
	assert.True(t, IsEnumAttr(AttrKeyword))
	assert.False(t, IsEnumAttr(AttrValue))
	assert.Contains(t, EnumCases(AttrInstant), "command_phase")
}
