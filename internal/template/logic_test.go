package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridianfc/meridian/internal/models"
)

func TestConditionMet(t *testing.T) {
	values := map[string]interface{}{
		"clientType": "business",
		"income":     float64(5000),
		"notes":      "prefers evening calls",
	}

	tests := []struct {
		name string
		cond models.FieldCondition
		want bool
	}{
		{"equals match", models.FieldCondition{FieldID: "clientType", Operator: models.OpEquals, Value: "business"}, true},
		{"equals mismatch", models.FieldCondition{FieldID: "clientType", Operator: models.OpEquals, Value: "individual"}, false},
		{"equals coerces numbers to strings", models.FieldCondition{FieldID: "income", Operator: models.OpEquals, Value: "5000"}, true},
		{"notEquals", models.FieldCondition{FieldID: "clientType", Operator: models.OpNotEquals, Value: "individual"}, true},
		{"contains", models.FieldCondition{FieldID: "notes", Operator: models.OpContains, Value: "evening"}, true},
		{"notContains", models.FieldCondition{FieldID: "notes", Operator: models.OpNotContains, Value: "morning"}, true},
		{"greaterThan", models.FieldCondition{FieldID: "income", Operator: models.OpGreaterThan, Value: float64(1000)}, true},
		{"greaterThan false", models.FieldCondition{FieldID: "income", Operator: models.OpGreaterThan, Value: float64(9000)}, false},
		{"lessThan", models.FieldCondition{FieldID: "income", Operator: models.OpLessThan, Value: float64(9000)}, true},
		{"numeric operator with non-numeric value", models.FieldCondition{FieldID: "notes", Operator: models.OpGreaterThan, Value: float64(1)}, false},
		{"missing field reads as empty", models.FieldCondition{FieldID: "ghost", Operator: models.OpEquals, Value: ""}, true},
		{"missing field never greaterThan", models.FieldCondition{FieldID: "ghost", Operator: models.OpGreaterThan, Value: float64(0)}, false},
		{"unknown operator", models.FieldCondition{FieldID: "clientType", Operator: "matches", Value: "business"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conditionMet(tt.cond, values))
		})
	}
}

func TestRuleApplies(t *testing.T) {
	values := map[string]interface{}{"a": "1", "b": "2"}

	rule := models.FieldLogic{
		Action: models.LogicShow,
		Conditions: []models.FieldCondition{
			{FieldID: "a", Operator: models.OpEquals, Value: "1"},
			{FieldID: "b", Operator: models.OpEquals, Value: "2"},
		},
	}
	assert.True(t, RuleApplies(rule, values))

	rule.Conditions[1].Value = "3"
	assert.False(t, RuleApplies(rule, values), "all conditions must hold")

	assert.True(t, RuleApplies(models.FieldLogic{Action: models.LogicShow}, values),
		"a rule with no conditions always applies")
}

func TestResolveFieldStateVisibility(t *testing.T) {
	show := models.FieldLogic{
		Action:     models.LogicShow,
		Conditions: []models.FieldCondition{{FieldID: "type", Operator: models.OpEquals, Value: "business"}},
	}
	hide := models.FieldLogic{
		Action:     models.LogicHide,
		Conditions: []models.FieldCondition{{FieldID: "type", Operator: models.OpEquals, Value: "business"}},
	}

	field := models.Field{FieldID: "companyName", Type: models.FieldText}

	t.Run("visible by default", func(t *testing.T) {
		state := ResolveFieldState(field, map[string]interface{}{})
		assert.True(t, state.Visible)
	})

	t.Run("show rule gates visibility", func(t *testing.T) {
		f := field
		f.Logic = []models.FieldLogic{show}
		state := ResolveFieldState(f, map[string]interface{}{"type": "individual"})
		assert.False(t, state.Visible)

		state = ResolveFieldState(f, map[string]interface{}{"type": "business"})
		assert.True(t, state.Visible)
	})

	t.Run("hide beats show", func(t *testing.T) {
		f := field
		f.Logic = []models.FieldLogic{show, hide}
		state := ResolveFieldState(f, map[string]interface{}{"type": "business"})
		assert.False(t, state.Visible)
	})
}

func TestResolveFieldStateRequired(t *testing.T) {
	require := models.FieldLogic{
		Action:     models.LogicRequire,
		Conditions: []models.FieldCondition{{FieldID: "type", Operator: models.OpEquals, Value: "business"}},
	}

	t.Run("require rule adds to static flag", func(t *testing.T) {
		f := models.Field{FieldID: "taxId", Type: models.FieldText, Logic: []models.FieldLogic{require}}
		state := ResolveFieldState(f, map[string]interface{}{"type": "business"})
		assert.True(t, state.Required)

		state = ResolveFieldState(f, map[string]interface{}{"type": "individual"})
		assert.False(t, state.Required)
	})

	t.Run("static flag survives inapplicable rule", func(t *testing.T) {
		f := models.Field{FieldID: "taxId", Type: models.FieldText, Required: true, Logic: []models.FieldLogic{require}}
		state := ResolveFieldState(f, map[string]interface{}{"type": "individual"})
		assert.True(t, state.Required)
	})
}

func TestResolveFieldStateCalculation(t *testing.T) {
	values := map[string]interface{}{"a": float64(10), "b": float64(4)}

	first := models.FieldLogic{Action: models.LogicCalculate, CalculationType: models.CalcSum, TargetFields: []string{"a", "b"}}
	second := models.FieldLogic{Action: models.LogicCalculate, CalculationType: models.CalcMultiply, TargetFields: []string{"a", "b"}}

	f := models.Field{FieldID: "total", Type: models.FieldCalculated, Logic: []models.FieldLogic{first, second}}
	state := ResolveFieldState(f, values)

	assert.True(t, state.Calculated)
	assert.Equal(t, float64(14), state.Value, "first applicable calculate rule wins")
}

func TestCalculate(t *testing.T) {
	values := map[string]interface{}{
		"a":    float64(10),
		"b":    float64(4),
		"zero": float64(0),
		"text": "not a number",
	}

	tests := []struct {
		name     string
		calcType models.CalculationType
		targets  []string
		want     float64
	}{
		{"sum", models.CalcSum, []string{"a", "b"}, 14},
		{"multiply", models.CalcMultiply, []string{"a", "b"}, 40},
		{"subtract", models.CalcSubtract, []string{"a", "b"}, 6},
		{"divide", models.CalcDivide, []string{"a", "b"}, 2.5},
		{"divide by zero yields zero", models.CalcDivide, []string{"a", "zero"}, 0},
		{"percentage", models.CalcPercentage, []string{"b", "a"}, 40},
		{"percentage of zero yields zero", models.CalcPercentage, []string{"a", "zero"}, 0},
		{"non-numeric targets coerce to zero", models.CalcSum, []string{"a", "text"}, 10},
		{"missing targets coerce to zero", models.CalcSum, []string{"ghost"}, 0},
		{"no targets", models.CalcSum, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Calculate(tt.calcType, tt.targets, values))
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want float64
		ok   bool
	}{
		{"float", float64(1.5), 1.5, true},
		{"int", 7, 7, true},
		{"numeric string", "42.5", 42.5, true},
		{"padded string", "  8 ", 8, true},
		{"bool true", true, 1, true},
		{"non-numeric string", "abc", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
