package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/meridianfc/meridian/internal/errors"
	"github.com/meridianfc/meridian/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationResult is the outcome of validating a data payload against a
// template. Data problems are collected here, never raised as errors.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateTemplateData checks a client's data payload against a template.
// Required fields (static flag or an applicable require rule) must carry a
// non-empty value; numeric and email checks are advisory and reported the
// same way. Hidden fields are skipped. The returned error is non-nil only
// for a malformed template structure, which is an integrity bug upstream,
// never for bad user data.
func ValidateTemplateData(tpl *models.ClientTemplate, data *models.TemplateData) (ValidationResult, error) {
	if tpl == nil {
		return ValidationResult{}, errors.NewStructuralError("template is nil")
	}
	if tpl.Tabs == nil {
		return ValidationResult{}, errors.NewStructuralError("template tabs must be a list")
	}
	if data == nil {
		data = &models.TemplateData{}
	}

	values := data.Values()
	var errs []string

	for _, section := range tpl.BasicInfo.Sections {
		validateSection(section, values, &errs)
	}
	for _, section := range tpl.Preferences.Sections {
		validateSection(section, values, &errs)
	}
	for _, tab := range tpl.Tabs {
		for _, section := range tab.Sections {
			validateSection(section, values, &errs)
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}, nil
}

func validateSection(section models.Section, values map[string]interface{}, errs *[]string) {
	for _, field := range section.Fields {
		state := ResolveFieldState(field, values)
		if !state.Visible {
			continue
		}

		value := values[field.FieldID]
		empty := isEmpty(value)

		if state.Required && empty {
			*errs = append(*errs, fmt.Sprintf("%s is required", fieldLabel(field)))
			continue
		}
		if empty {
			continue
		}

		if field.Type.Numeric() {
			if _, ok := toNumber(value); !ok {
				*errs = append(*errs, fmt.Sprintf("%s must be a number", fieldLabel(field)))
			}
		}
		if field.Type == models.FieldEmail && !emailPattern.MatchString(toString(value)) {
			*errs = append(*errs, fmt.Sprintf("%s must be a valid email address", fieldLabel(field)))
		}
	}
}

// InitializeTemplateData produces the empty payload skeleton for a
// template, mirroring exactly the shape the validator walks: empty field
// maps for the two bundles and a {id, name, sections: [], data: {}} entry
// per tab.
func InitializeTemplateData(tpl *models.ClientTemplate) *models.TemplateData {
	data := &models.TemplateData{
		BasicInfo:   make(map[string]interface{}),
		Preferences: make(map[string]interface{}),
		Tabs:        make([]models.TabData, 0, len(tpl.Tabs)),
	}

	for _, tab := range tpl.Tabs {
		data.Tabs = append(data.Tabs, models.TabData{
			ID:       tab.ID,
			Name:     tab.Name,
			Sections: []string{},
			Data:     make(map[string]interface{}),
		})
	}

	return data
}

func fieldLabel(field models.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

// isEmpty reports whether a value counts as absent for required checks
func isEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []interface{}:
		return len(val) == 0
	case []string:
		return len(val) == 0
	default:
		return false
	}
}
