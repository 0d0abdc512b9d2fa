package template

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianfc/meridian/internal/errors"
	"github.com/meridianfc/meridian/internal/models"
	"github.com/meridianfc/meridian/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, context.Context) {
	t.Helper()
	stores := store.NewMemoryStores()
	return NewEngine(stores.Templates, zerolog.Nop()), context.Background()
}

func TestEngineCreate(t *testing.T) {
	engine, ctx := newTestEngine(t)

	tpl, err := engine.Create(ctx, "Coaching Intake", "standard intake form")
	require.NoError(t, err)
	assert.Equal(t, 1, tpl.Version)
	assert.Empty(t, tpl.Tabs)
	assert.Empty(t, tpl.BasicInfo.Sections)

	_, err = engine.Create(ctx, "   ", "")
	var valErr *errors.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestEngineTabOrdering(t *testing.T) {
	engine, ctx := newTestEngine(t)
	tpl, err := engine.Create(ctx, "Intake", "")
	require.NoError(t, err)

	for _, name := range []string{"First", "Second", "Third"} {
		tpl, err = engine.AddTab(ctx, tpl.ID, name)
		require.NoError(t, err)
	}
	require.Len(t, tpl.Tabs, 3)
	for i, tab := range tpl.Tabs {
		assert.Equal(t, i, tab.Order)
	}

	// Move the last tab up
	tpl, err = engine.MoveTab(ctx, tpl.ID, tpl.Tabs[2].ID, MoveUp)
	require.NoError(t, err)
	assert.Equal(t, "Third", tpl.Tabs[1].Name)
	for i, tab := range tpl.Tabs {
		assert.Equal(t, i, tab.Order, "orders stay contiguous after a move")
	}

	// Moving the first tab up is a no-op, not an error
	before := tpl.Tabs[0].Name
	tpl, err = engine.MoveTab(ctx, tpl.ID, tpl.Tabs[0].ID, MoveUp)
	require.NoError(t, err)
	assert.Equal(t, before, tpl.Tabs[0].Name)

	_, err = engine.MoveTab(ctx, tpl.ID, tpl.Tabs[0].ID, "sideways")
	var valErr *errors.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestEngineRemoveTabSelection(t *testing.T) {
	engine, ctx := newTestEngine(t)
	tpl, err := engine.Create(ctx, "Intake", "")
	require.NoError(t, err)

	for _, name := range []string{"A", "B", "C"} {
		tpl, err = engine.AddTab(ctx, tpl.ID, name)
		require.NoError(t, err)
	}
	tabA, tabB, tabC := tpl.Tabs[0].ID, tpl.Tabs[1].ID, tpl.Tabs[2].ID

	// Removing an unselected tab keeps the selection
	tpl, selected, err := engine.RemoveTab(ctx, tpl.ID, tabC, tabB)
	require.NoError(t, err)
	assert.Equal(t, tabB, selected)

	// Removing the selected tab falls back to the first remaining tab
	tpl, selected, err = engine.RemoveTab(ctx, tpl.ID, tabB, tabB)
	require.NoError(t, err)
	assert.Equal(t, tabA, selected)

	// Removing the last tab leaves no selection
	tpl, selected, err = engine.RemoveTab(ctx, tpl.ID, tabA, tabA)
	require.NoError(t, err)
	assert.Empty(t, selected)
	assert.Empty(t, tpl.Tabs)

	var nfErr *errors.NotFoundError
	_, _, err = engine.RemoveTab(ctx, tpl.ID, "ghost", "")
	require.ErrorAs(t, err, &nfErr)
}

func TestEngineSections(t *testing.T) {
	engine, ctx := newTestEngine(t)
	tpl, err := engine.Create(ctx, "Intake", "")
	require.NoError(t, err)

	tpl, err = engine.AddSection(ctx, tpl.ID, BundleBasicInfo, "identity", "Identity", "")
	require.NoError(t, err)
	require.Len(t, tpl.BasicInfo.Sections, 1)

	tpl, err = engine.AddTab(ctx, tpl.ID, "Finances")
	require.NoError(t, err)
	tabID := tpl.Tabs[0].ID

	tpl, err = engine.AddSection(ctx, tpl.ID, tabID, "income", "Income", "")
	require.NoError(t, err)
	require.Len(t, tpl.Tabs[0].Sections, 1)

	var nfErr *errors.NotFoundError
	_, err = engine.AddSection(ctx, tpl.ID, "no-such-tab", "x", "", "")
	require.ErrorAs(t, err, &nfErr)

	tpl, err = engine.RemoveSection(ctx, tpl.ID, tabID, tpl.Tabs[0].Sections[0].ID)
	require.NoError(t, err)
	assert.Empty(t, tpl.Tabs[0].Sections)
}

func TestEngineFieldLifecycle(t *testing.T) {
	engine, ctx := newTestEngine(t)
	tpl, err := engine.Create(ctx, "Intake", "")
	require.NoError(t, err)
	tpl, err = engine.AddSection(ctx, tpl.ID, BundleBasicInfo, "identity", "Identity", "")
	require.NoError(t, err)
	sectionID := tpl.BasicInfo.Sections[0].ID

	tpl, err = engine.AddField(ctx, tpl.ID, BundleBasicInfo, sectionID, models.Field{
		Name:  "fullName",
		Type:  models.FieldText,
		Label: "Full Name",
	})
	require.NoError(t, err)
	require.Len(t, tpl.BasicInfo.Sections[0].Fields, 1)

	field := tpl.BasicInfo.Sections[0].Fields[0]
	assert.NotEmpty(t, field.ID)
	assert.NotEmpty(t, field.FieldID)
	assert.Equal(t, 0, field.Order)

	// Shallow merge: only the patched members change; options replace wholesale
	newLabel := "Legal Name"
	required := true
	tpl, err = engine.UpdateField(ctx, tpl.ID, field.ID, FieldPatch{
		Label:    &newLabel,
		Required: &required,
	})
	require.NoError(t, err)
	updated := tpl.BasicInfo.Sections[0].Fields[0]
	assert.Equal(t, "Legal Name", updated.Label)
	assert.True(t, updated.Required)
	assert.Equal(t, "fullName", updated.Name, "unpatched members are untouched")

	tpl, err = engine.RemoveField(ctx, tpl.ID, field.ID)
	require.NoError(t, err)
	assert.Empty(t, tpl.BasicInfo.Sections[0].Fields)

	var nfErr *errors.NotFoundError
	_, err = engine.RemoveField(ctx, tpl.ID, field.ID)
	require.ErrorAs(t, err, &nfErr)
}

func TestEngineFieldInvariants(t *testing.T) {
	engine, ctx := newTestEngine(t)
	tpl, err := engine.Create(ctx, "Intake", "")
	require.NoError(t, err)
	tpl, err = engine.AddSection(ctx, tpl.ID, BundleBasicInfo, "identity", "", "")
	require.NoError(t, err)
	sectionID := tpl.BasicInfo.Sections[0].ID

	var valErr *errors.ValidationError

	_, err = engine.AddField(ctx, tpl.ID, BundleBasicInfo, sectionID, models.Field{Name: "x", Type: "wizard"})
	require.ErrorAs(t, err, &valErr, "unknown field types are rejected, never ignored")

	_, err = engine.AddField(ctx, tpl.ID, BundleBasicInfo, sectionID, models.Field{Name: "x", Type: models.FieldSelect})
	require.ErrorAs(t, err, &valErr, "select fields need options")

	_, err = engine.AddField(ctx, tpl.ID, BundleBasicInfo, sectionID, models.Field{Name: "x", Type: models.FieldCalculated})
	require.ErrorAs(t, err, &valErr, "calculated fields need a calculate rule")

	_, err = engine.AddField(ctx, tpl.ID, BundleBasicInfo, sectionID, models.Field{
		Name: "x", Type: models.FieldText, FieldID: "bad field id!",
	})
	require.ErrorAs(t, err, &valErr)

	_, err = engine.AddField(ctx, tpl.ID, BundleBasicInfo, sectionID, models.Field{
		Name: "total",
		Type: models.FieldCalculated,
		Logic: []models.FieldLogic{
			{Action: models.LogicCalculate, CalculationType: models.CalcSum, TargetFields: []string{"a", "b"}},
		},
	})
	require.NoError(t, err)
}

func TestEngineVersionBumpsOnStructuralChange(t *testing.T) {
	engine, ctx := newTestEngine(t)
	tpl, err := engine.Create(ctx, "Intake", "")
	require.NoError(t, err)
	require.Equal(t, 1, tpl.Version)

	tpl, err = engine.AddTab(ctx, tpl.ID, "Tab")
	require.NoError(t, err)
	assert.Equal(t, 2, tpl.Version)

	tpl, err = engine.AddSection(ctx, tpl.ID, BundleBasicInfo, "s", "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, tpl.Version)

	tpl, err = engine.UpdateInfo(ctx, tpl.ID, "Renamed", "", true)
	require.NoError(t, err)
	assert.Equal(t, 4, tpl.Version)
}
