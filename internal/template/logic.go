// Package template implements the client template engine: schema-driven
// form definitions with conditional field logic and calculated values.
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meridianfc/meridian/internal/models"
)

// FieldState is the resolved runtime state of a field for a given set of
// current values: whether it is shown, whether it is required, and the
// value it carries after any calculation.
type FieldState struct {
	Visible    bool        `json:"visible"`
	Required   bool        `json:"required"`
	Calculated bool        `json:"calculated"`
	Value      interface{} `json:"value"`
}

// ResolveFieldState evaluates a field's logic rules against the current
// values (fieldId -> value across the whole rendered context).
//
// Visibility: if any applicable rule hides the field it is hidden, no
// matter what show rules say. A field that carries show rules is visible
// only while at least one of them applies; a field with no show rules is
// visible by default.
//
// Required: an applicable require rule adds to the static flag, it does
// not replace it.
//
// Calculation: rules are scanned in array order and the first applicable
// calculate rule wins; its result overwrites the field's value. Calculated
// fields are never user-editable.
func ResolveFieldState(field models.Field, values map[string]interface{}) FieldState {
	state := FieldState{
		Visible:  true,
		Required: field.Required,
		Value:    values[field.FieldID],
	}

	hasShow := false
	shown := false

	for _, rule := range field.Logic {
		applies := RuleApplies(rule, values)

		switch rule.Action {
		case models.LogicShow:
			hasShow = true
			if applies {
				shown = true
			}
		case models.LogicHide:
			if applies {
				state.Visible = false
			}
		case models.LogicRequire:
			if applies {
				state.Required = true
			}
		case models.LogicCalculate:
			if applies && !state.Calculated {
				state.Value = Calculate(rule.CalculationType, rule.TargetFields, values)
				state.Calculated = true
			}
		}
	}

	if hasShow && !shown {
		state.Visible = false
	}

	if field.Type == models.FieldCalculated {
		state.Calculated = true
	}

	return state
}

// RuleApplies reports whether every condition of the rule holds (logical
// AND). A rule with no conditions always applies.
func RuleApplies(rule models.FieldLogic, values map[string]interface{}) bool {
	for _, cond := range rule.Conditions {
		if !conditionMet(cond, values) {
			return false
		}
	}
	return true
}

// conditionMet evaluates one condition against the current values. String
// operators coerce both sides to string; numeric operators coerce both
// sides to number. A condition referencing a field absent from the values
// map reads an empty value.
func conditionMet(cond models.FieldCondition, values map[string]interface{}) bool {
	current := values[cond.FieldID]

	switch cond.Operator {
	case models.OpEquals:
		return toString(current) == toString(cond.Value)
	case models.OpNotEquals:
		return toString(current) != toString(cond.Value)
	case models.OpContains:
		return strings.Contains(toString(current), toString(cond.Value))
	case models.OpNotContains:
		return !strings.Contains(toString(current), toString(cond.Value))
	case models.OpGreaterThan:
		a, aok := toNumber(current)
		b, bok := toNumber(cond.Value)
		return aok && bok && a > b
	case models.OpLessThan:
		a, aok := toNumber(current)
		b, bok := toNumber(cond.Value)
		return aok && bok && a < b
	}
	return false
}

// Calculate derives a value from the target fields' current values.
// Targets that are absent or not numeric coerce to zero; division by zero
// yields zero. Percentage reads the first target as a share of the second.
func Calculate(calcType models.CalculationType, targets []string, values map[string]interface{}) float64 {
	nums := make([]float64, len(targets))
	for i, t := range targets {
		n, ok := toNumber(values[t])
		if ok {
			nums[i] = n
		}
	}

	if len(nums) == 0 {
		return 0
	}

	switch calcType {
	case models.CalcSum:
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total
	case models.CalcMultiply:
		product := nums[0]
		for _, n := range nums[1:] {
			product *= n
		}
		return product
	case models.CalcDivide:
		result := nums[0]
		for _, n := range nums[1:] {
			if n == 0 {
				return 0
			}
			result /= n
		}
		return result
	case models.CalcSubtract:
		result := nums[0]
		for _, n := range nums[1:] {
			result -= n
		}
		return result
	case models.CalcPercentage:
		if len(nums) < 2 || nums[1] == 0 {
			return 0
		}
		return nums[0] / nums[1] * 100
	}
	return 0
}

// toString coerces a value to its string form; nil reads as empty
func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// toNumber coerces a value to a float64, reporting whether it was numeric
func toNumber(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
