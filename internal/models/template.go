// Package models - client template schema types
// A ClientTemplate describes the shape of a client record's custom data:
// sections of fields grouped into tabs, with per-field conditional logic.
package models

import (
	"database/sql/driver"
	"encoding/json"
)

// FieldType enumerates the supported field input types. The set is closed:
// unknown tags must be rejected by the template engine, never ignored.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldEmail       FieldType = "email"
	FieldPhone       FieldType = "phone"
	FieldDate        FieldType = "date"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldCheckbox    FieldType = "checkbox"
	FieldTextarea    FieldType = "textarea"
	FieldCurrency    FieldType = "currency"
	FieldPercentage  FieldType = "percentage"
	FieldCalculated  FieldType = "calculated"
)

// Valid reports whether the type is one of the known field types
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldEmail, FieldPhone, FieldDate,
		FieldSelect, FieldMultiSelect, FieldCheckbox, FieldTextarea,
		FieldCurrency, FieldPercentage, FieldCalculated:
		return true
	}
	return false
}

// Numeric reports whether values of this type are validated as numbers
func (t FieldType) Numeric() bool {
	switch t {
	case FieldNumber, FieldCurrency, FieldPercentage, FieldCalculated:
		return true
	}
	return false
}

// NeedsOptions reports whether the type requires a non-empty options list
func (t FieldType) NeedsOptions() bool {
	return t == FieldSelect || t == FieldMultiSelect
}

// ConditionOperator enumerates the comparison operators usable in field
// logic conditions
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "equals"
	OpNotEquals   ConditionOperator = "notEquals"
	OpContains    ConditionOperator = "contains"
	OpNotContains ConditionOperator = "notContains"
	OpGreaterThan ConditionOperator = "greaterThan"
	OpLessThan    ConditionOperator = "lessThan"
)

// LogicAction enumerates what an applicable logic rule does to its field
type LogicAction string

const (
	LogicShow      LogicAction = "show"
	LogicHide      LogicAction = "hide"
	LogicRequire   LogicAction = "require"
	LogicCalculate LogicAction = "calculate"
)

// CalculationType enumerates the derivations a calculate rule can perform
type CalculationType string

const (
	CalcSum        CalculationType = "sum"
	CalcMultiply   CalculationType = "multiply"
	CalcDivide     CalculationType = "divide"
	CalcSubtract   CalculationType = "subtract"
	CalcPercentage CalculationType = "percentage"
)

// FieldCondition compares another field's current value against a constant.
// The referenced field is addressed by its stable FieldID, not its row id.
type FieldCondition struct {
	FieldID  string            `json:"fieldId"`
	Operator ConditionOperator `json:"operator"`
	Value    interface{}       `json:"value"`
}

// FieldLogic is a conditional rule attached to a field. All conditions must
// hold (logical AND) for the rule to apply.
type FieldLogic struct {
	Conditions      []FieldCondition `json:"conditions"`
	Action          LogicAction      `json:"action"`
	CalculationType CalculationType  `json:"calculationType,omitempty"`
	TargetFields    []string         `json:"targetFields,omitempty"`
}

// FieldOption is one selectable choice for select/multiselect fields
type FieldOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FieldValidation holds the static validation constraints of a field
type FieldValidation struct {
	Pattern   string   `json:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
}

// Field is the atomic schema unit of a template. ID identifies the schema
// node; FieldID is the stable key logic conditions and data payloads use,
// so a field can be renamed or duplicated without breaking references.
type Field struct {
	ID           string           `json:"id"`
	FieldID      string           `json:"fieldId"`
	Name         string           `json:"name"`
	Type         FieldType        `json:"type"`
	Label        string           `json:"label"`
	Placeholder  string           `json:"placeholder,omitempty"`
	Required     bool             `json:"required"`
	Options      []FieldOption    `json:"options,omitempty"`
	DefaultValue interface{}      `json:"defaultValue,omitempty"`
	Validation   *FieldValidation `json:"validation,omitempty"`
	Logic        []FieldLogic     `json:"logic,omitempty"`
	Order        int              `json:"order"`
}

// Section is an ordered, named group of fields
type Section struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
	Order       int     `json:"order"`
	Fields      []Field `json:"fields"`
}

// Tab is an ordered, named group of sections
type Tab struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Order    int       `json:"order"`
	Sections []Section `json:"sections"`
}

// SectionBundle wraps the fixed section groups of a template (basic info
// and preferences) so they serialize as a single JSONB document
type SectionBundle struct {
	Sections []Section `json:"sections"`
}

// Value implements the driver.Valuer interface
func (b SectionBundle) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements the sql.Scanner interface
func (b *SectionBundle) Scan(value interface{}) error {
	*b = SectionBundle{}
	return scanJSONB(value, b)
}

// TabList is the JSONB-backed ordered tab collection of a template
type TabList []Tab

// Value implements the driver.Valuer interface
func (t TabList) Value() (driver.Value, error) {
	if t == nil {
		return json.Marshal([]Tab{})
	}
	return json.Marshal([]Tab(t))
}

// Scan implements the sql.Scanner interface
func (t *TabList) Scan(value interface{}) error {
	*t = nil
	return scanJSONB(value, t)
}

// TabData is the per-tab slot of a client's template data payload. Its
// shape mirrors what the template validator walks: an id/name pair, the
// section ids the tab carried when populated, and a fieldId-keyed value map.
type TabData struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Sections []string               `json:"sections"`
	Data     map[string]interface{} `json:"data"`
}

// TemplateData is a client's custom data payload, shaped by the client's
// referenced template at the time of population
type TemplateData struct {
	BasicInfo   map[string]interface{} `json:"basicInfo"`
	Preferences map[string]interface{} `json:"preferences"`
	Tabs        []TabData              `json:"tabs"`
}

// Value implements the driver.Valuer interface
func (d TemplateData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface
func (d *TemplateData) Scan(value interface{}) error {
	*d = TemplateData{}
	return scanJSONB(value, d)
}

// Values flattens the payload into one fieldId -> value map across the
// basic info bundle, the preferences bundle and every tab. Later tabs win
// on duplicate field ids, which templates do not produce in practice.
func (d *TemplateData) Values() map[string]interface{} {
	values := make(map[string]interface{})
	if d == nil {
		return values
	}
	for k, v := range d.BasicInfo {
		values[k] = v
	}
	for k, v := range d.Preferences {
		values[k] = v
	}
	for _, tab := range d.Tabs {
		for k, v := range tab.Data {
			values[k] = v
		}
	}
	return values
}
