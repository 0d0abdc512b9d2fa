package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianfc/meridian/internal/errors"
	"github.com/meridianfc/meridian/internal/models"
)

func testTemplate() *models.ClientTemplate {
	return &models.ClientTemplate{
		BasicInfo: models.SectionBundle{Sections: []models.Section{
			{
				ID:   "s1",
				Name: "identity",
				Fields: []models.Field{
					{ID: "f1", FieldID: "fullName", Name: "fullName", Label: "Full Name", Type: models.FieldText, Required: true},
					{ID: "f2", FieldID: "email", Name: "email", Label: "Email", Type: models.FieldEmail},
				},
			},
		}},
		Preferences: models.SectionBundle{Sections: []models.Section{}},
		Tabs: models.TabList{
			{
				ID:   "tab1",
				Name: "Finances",
				Sections: []models.Section{
					{
						ID:   "s2",
						Name: "income",
						Fields: []models.Field{
							{ID: "f3", FieldID: "monthlyIncome", Name: "monthlyIncome", Label: "Monthly Income", Type: models.FieldCurrency},
						},
					},
				},
			},
		},
	}
}

func TestValidateTemplateDataRequired(t *testing.T) {
	tpl := testTemplate()

	result, err := ValidateTemplateData(tpl, &models.TemplateData{
		BasicInfo: map[string]interface{}{"fullName": ""},
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Full Name is required")

	result, err = ValidateTemplateData(tpl, &models.TemplateData{
		BasicInfo: map[string]interface{}{"fullName": "Dana Reyes"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateTemplateDataAdvisoryChecks(t *testing.T) {
	tpl := testTemplate()

	result, err := ValidateTemplateData(tpl, &models.TemplateData{
		BasicInfo: map[string]interface{}{
			"fullName": "Dana Reyes",
			"email":    "not-an-email",
		},
		Tabs: []models.TabData{
			{ID: "tab1", Data: map[string]interface{}{"monthlyIncome": "lots"}},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Email must be a valid email address")
	assert.Contains(t, result.Errors, "Monthly Income must be a number")
}

func TestValidateTemplateDataSkipsHiddenFields(t *testing.T) {
	tpl := testTemplate()
	tpl.BasicInfo.Sections[0].Fields[0].Logic = []models.FieldLogic{
		{
			Action:     models.LogicShow,
			Conditions: []models.FieldCondition{{FieldID: "email", Operator: models.OpEquals, Value: "x@y.z"}},
		},
	}

	// fullName is required but hidden, so its absence is not an error
	result, err := ValidateTemplateData(tpl, &models.TemplateData{})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
}

func TestValidateTemplateDataRequireRule(t *testing.T) {
	tpl := testTemplate()
	tpl.Tabs[0].Sections[0].Fields[0].Logic = []models.FieldLogic{
		{
			Action:     models.LogicRequire,
			Conditions: []models.FieldCondition{{FieldID: "fullName", Operator: models.OpEquals, Value: "Dana Reyes"}},
		},
	}

	result, err := ValidateTemplateData(tpl, &models.TemplateData{
		BasicInfo: map[string]interface{}{"fullName": "Dana Reyes"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Monthly Income is required")
}

func TestValidateTemplateDataStructuralErrors(t *testing.T) {
	_, err := ValidateTemplateData(nil, &models.TemplateData{})
	var structErr *errors.StructuralError
	require.ErrorAs(t, err, &structErr)

	tpl := testTemplate()
	tpl.Tabs = nil
	_, err = ValidateTemplateData(tpl, &models.TemplateData{})
	require.ErrorAs(t, err, &structErr)
}

func TestValidateTemplateDataNilPayload(t *testing.T) {
	tpl := testTemplate()
	result, err := ValidateTemplateData(tpl, nil)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Full Name is required")
}

func TestInitializeTemplateData(t *testing.T) {
	tpl := testTemplate()
	data := InitializeTemplateData(tpl)

	require.NotNil(t, data)
	assert.NotNil(t, data.BasicInfo)
	assert.NotNil(t, data.Preferences)
	assert.Empty(t, data.BasicInfo)
	require.Len(t, data.Tabs, 1)
	assert.Equal(t, "tab1", data.Tabs[0].ID)
	assert.Equal(t, "Finances", data.Tabs[0].Name)
	assert.NotNil(t, data.Tabs[0].Sections)
	assert.NotNil(t, data.Tabs[0].Data)
	assert.Empty(t, data.Tabs[0].Data)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, isEmpty(nil))
	assert.True(t, isEmpty(""))
	assert.True(t, isEmpty("   "))
	assert.True(t, isEmpty([]interface{}{}))
	assert.True(t, isEmpty([]string{}))
	assert.False(t, isEmpty("x"))
	assert.False(t, isEmpty(float64(0)), "numeric zero is a value, not an absence")
	assert.False(t, isEmpty(false))
}
