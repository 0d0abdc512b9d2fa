package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meridianfc/meridian/internal/errors"
	"github.com/meridianfc/meridian/internal/models"
	"github.com/meridianfc/meridian/internal/security"
	"github.com/meridianfc/meridian/internal/store"
	"github.com/rs/zerolog"
)

// Locators for the fixed section bundles of a template. Any other locator
// value addresses a tab by its id.
const (
	BundleBasicInfo   = "basicInfo"
	BundlePreferences = "preferences"
)

// MoveDirection says which way a tab is moved in the tab order
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// Engine defines, mutates and renders client template schemas
type Engine struct {
	templates store.TemplateStore
	log       zerolog.Logger
}

// NewEngine creates a template engine on top of the given store
func NewEngine(templates store.TemplateStore, log zerolog.Logger) *Engine {
	return &Engine{templates: templates, log: log}
}

// =============================================================================
// TEMPLATE CRUD
// =============================================================================

// Create creates a new template with no tabs and empty section bundles
func (e *Engine) Create(ctx context.Context, name, description string) (*models.ClientTemplate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidationError("name", "Template name is required")
	}

	tpl := &models.ClientTemplate{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: description,
		BasicInfo:   models.SectionBundle{Sections: []models.Section{}},
		Preferences: models.SectionBundle{Sections: []models.Section{}},
		Tabs:        models.TabList{},
		Version:     1,
	}

	if err := e.templates.Create(ctx, tpl); err != nil {
		return nil, err
	}

	e.log.Info().Str("template_id", tpl.ID.String()).Str("name", tpl.Name).Msg("template created")
	return tpl, nil
}

// Get returns a template by id
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*models.ClientTemplate, error) {
	tpl, err := e.templates.Get(ctx, id)
	if err == store.ErrNotFound {
		return nil, errors.NewNotFoundError("template")
	}
	return tpl, err
}

// List returns all templates
func (e *Engine) List(ctx context.Context) ([]models.ClientTemplate, error) {
	return e.templates.List(ctx)
}

// UpdateInfo updates a template's name, description and default flag
func (e *Engine) UpdateInfo(ctx context.Context, id uuid.UUID, name, description string, isDefault bool) (*models.ClientTemplate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidationError("name", "Template name is required")
	}

	tpl, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tpl.Name = strings.TrimSpace(name)
	tpl.Description = description
	tpl.IsDefault = isDefault

	return e.save(ctx, tpl)
}

// Delete removes a template. Clients referencing it keep their raw
// template data; the dangling reference is a recoverable state for them.
func (e *Engine) Delete(ctx context.Context, id uuid.UUID) error {
	err := e.templates.Delete(ctx, id)
	if err == store.ErrNotFound {
		return errors.NewNotFoundError("template")
	}
	return err
}

// =============================================================================
// TAB OPERATIONS
// =============================================================================

// AddTab appends a tab to the end of the tab order
func (e *Engine) AddTab(ctx context.Context, templateID uuid.UUID, name string) (*models.ClientTemplate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidationError("name", "Tab name is required")
	}

	tpl, err := e.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	tab := models.Tab{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(name),
		Order:    len(tpl.Tabs),
		Sections: []models.Section{},
	}
	tpl.Tabs = append(tpl.Tabs, tab)

	return e.save(ctx, tpl)
}

// MoveTab swaps a tab with its neighbor and renumbers every tab's order
// to its array position, keeping the sequence contiguous and gap-free
func (e *Engine) MoveTab(ctx context.Context, templateID uuid.UUID, tabID string, direction MoveDirection) (*models.ClientTemplate, error) {
	tpl, err := e.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	idx := tabIndex(tpl.Tabs, tabID)
	if idx < 0 {
		return nil, errors.NewNotFoundError("tab")
	}

	switch direction {
	case MoveUp:
		if idx > 0 {
			tpl.Tabs[idx-1], tpl.Tabs[idx] = tpl.Tabs[idx], tpl.Tabs[idx-1]
		}
	case MoveDown:
		if idx < len(tpl.Tabs)-1 {
			tpl.Tabs[idx], tpl.Tabs[idx+1] = tpl.Tabs[idx+1], tpl.Tabs[idx]
		}
	default:
		return nil, errors.NewValidationError("direction", "Direction must be up or down")
	}

	for i := range tpl.Tabs {
		tpl.Tabs[i].Order = i
	}

	return e.save(ctx, tpl)
}

// RemoveTab filters a tab out of the template and reports which tab should
// be selected afterwards: the previous selection if it survives, otherwise
// the first remaining tab, otherwise none. Downstream code assumes a
// non-empty selection whenever tabs remain.
func (e *Engine) RemoveTab(ctx context.Context, templateID uuid.UUID, tabID, selectedTabID string) (*models.ClientTemplate, string, error) {
	tpl, err := e.Get(ctx, templateID)
	if err != nil {
		return nil, "", err
	}

	if tabIndex(tpl.Tabs, tabID) < 0 {
		return nil, "", errors.NewNotFoundError("tab")
	}

	remaining := make(models.TabList, 0, len(tpl.Tabs)-1)
	for _, tab := range tpl.Tabs {
		if tab.ID != tabID {
			remaining = append(remaining, tab)
		}
	}
	for i := range remaining {
		remaining[i].Order = i
	}
	tpl.Tabs = remaining

	selected := selectedTabID
	if selected == tabID || tabIndex(tpl.Tabs, selected) < 0 {
		selected = ""
		if len(tpl.Tabs) > 0 {
			selected = tpl.Tabs[0].ID
		}
	}

	tpl, err = e.save(ctx, tpl)
	return tpl, selected, err
}

// =============================================================================
// SECTION OPERATIONS
// =============================================================================

// AddSection appends a section to the located bundle or tab. The locator
// is BundleBasicInfo, BundlePreferences, or a tab id.
func (e *Engine) AddSection(ctx context.Context, templateID uuid.UUID, locator, name, label, description string) (*models.ClientTemplate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidationError("name", "Section name is required")
	}

	tpl, err := e.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	sections, err := locateSections(tpl, locator)
	if err != nil {
		return nil, err
	}

	section := models.Section{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Label:       label,
		Description: description,
		Order:       len(*sections),
		Fields:      []models.Field{},
	}
	*sections = append(*sections, section)

	return e.save(ctx, tpl)
}

// RemoveSection filters a section out of the located bundle or tab
func (e *Engine) RemoveSection(ctx context.Context, templateID uuid.UUID, locator, sectionID string) (*models.ClientTemplate, error) {
	tpl, err := e.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	sections, err := locateSections(tpl, locator)
	if err != nil {
		return nil, err
	}

	found := false
	remaining := make([]models.Section, 0, len(*sections))
	for _, s := range *sections {
		if s.ID == sectionID {
			found = true
			continue
		}
		remaining = append(remaining, s)
	}
	if !found {
		return nil, errors.NewNotFoundError("section")
	}
	for i := range remaining {
		remaining[i].Order = i
	}
	*sections = remaining

	return e.save(ctx, tpl)
}

// =============================================================================
// FIELD OPERATIONS
// =============================================================================

// FieldPatch is a partial field update. Nil members are left untouched;
// set members replace the existing value wholesale (options, validation
// and logic are never deep-merged).
type FieldPatch struct {
	Name         *string                 `json:"name,omitempty"`
	Type         *models.FieldType       `json:"type,omitempty"`
	Label        *string                 `json:"label,omitempty"`
	Placeholder  *string                 `json:"placeholder,omitempty"`
	Required     *bool                   `json:"required,omitempty"`
	Options      *[]models.FieldOption   `json:"options,omitempty"`
	DefaultValue *interface{}            `json:"defaultValue,omitempty"`
	Validation   *models.FieldValidation `json:"validation,omitempty"`
	Logic        *[]models.FieldLogic    `json:"logic,omitempty"`
	Order        *int                    `json:"order,omitempty"`
}

// AddField appends a field to a section of the located bundle or tab
func (e *Engine) AddField(ctx context.Context, templateID uuid.UUID, locator, sectionID string, field models.Field) (*models.ClientTemplate, error) {
	if err := validateField(&field); err != nil {
		return nil, err
	}

	tpl, err := e.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	sections, err := locateSections(tpl, locator)
	if err != nil {
		return nil, err
	}

	for i := range *sections {
		if (*sections)[i].ID != sectionID {
			continue
		}
		if field.ID == "" {
			field.ID = uuid.NewString()
		}
		if field.FieldID == "" {
			field.FieldID = field.ID
		}
		field.Order = len((*sections)[i].Fields)
		(*sections)[i].Fields = append((*sections)[i].Fields, field)
		return e.save(ctx, tpl)
	}

	return nil, errors.NewNotFoundError("section")
}

// UpdateField replaces a field by id with a shallow merge of the patch
func (e *Engine) UpdateField(ctx context.Context, templateID uuid.UUID, fieldID string, patch FieldPatch) (*models.ClientTemplate, error) {
	tpl, err := e.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	field := findField(tpl, fieldID)
	if field == nil {
		return nil, errors.NewNotFoundError("field")
	}

	applyPatch(field, patch)
	if err := validateField(field); err != nil {
		return nil, err
	}

	return e.save(ctx, tpl)
}

// RemoveField filters a field out of whichever section holds it
func (e *Engine) RemoveField(ctx context.Context, templateID uuid.UUID, fieldID string) (*models.ClientTemplate, error) {
	tpl, err := e.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	removed := false
	for _, sections := range allSectionLists(tpl) {
		for i := range *sections {
			fields := (*sections)[i].Fields
			kept := make([]models.Field, 0, len(fields))
			for _, f := range fields {
				if f.ID == fieldID {
					removed = true
					continue
				}
				kept = append(kept, f)
			}
			if len(kept) != len(fields) {
				for j := range kept {
					kept[j].Order = j
				}
				(*sections)[i].Fields = kept
			}
		}
	}

	if !removed {
		return nil, errors.NewNotFoundError("field")
	}

	return e.save(ctx, tpl)
}

// =============================================================================
// HELPERS
// =============================================================================

// save bumps the structural version and persists the template
func (e *Engine) save(ctx context.Context, tpl *models.ClientTemplate) (*models.ClientTemplate, error) {
	tpl.Version++
	if err := e.templates.Update(ctx, tpl); err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NewNotFoundError("template")
		}
		return nil, err
	}
	return tpl, nil
}

func tabIndex(tabs models.TabList, tabID string) int {
	for i, tab := range tabs {
		if tab.ID == tabID {
			return i
		}
	}
	return -1
}

// locateSections resolves a locator to the section list it addresses
func locateSections(tpl *models.ClientTemplate, locator string) (*[]models.Section, error) {
	switch locator {
	case BundleBasicInfo:
		return &tpl.BasicInfo.Sections, nil
	case BundlePreferences:
		return &tpl.Preferences.Sections, nil
	}
	idx := tabIndex(tpl.Tabs, locator)
	if idx < 0 {
		return nil, errors.NewNotFoundError("tab")
	}
	return &tpl.Tabs[idx].Sections, nil
}

// allSectionLists returns every section list of the template in walk order
func allSectionLists(tpl *models.ClientTemplate) []*[]models.Section {
	lists := []*[]models.Section{&tpl.BasicInfo.Sections, &tpl.Preferences.Sections}
	for i := range tpl.Tabs {
		lists = append(lists, &tpl.Tabs[i].Sections)
	}
	return lists
}

func findField(tpl *models.ClientTemplate, fieldID string) *models.Field {
	for _, sections := range allSectionLists(tpl) {
		for i := range *sections {
			for j := range (*sections)[i].Fields {
				if (*sections)[i].Fields[j].ID == fieldID {
					return &(*sections)[i].Fields[j]
				}
			}
		}
	}
	return nil
}

// validateField enforces the field invariants: the type must be a known
// tag, select/multiselect need options, calculated fields need a
// calculate rule
func validateField(field *models.Field) error {
	if strings.TrimSpace(field.Name) == "" {
		return errors.NewValidationError("name", "Field name is required")
	}
	if field.FieldID != "" {
		if err := security.ValidateFieldID(field.FieldID); err != nil {
			return errors.NewValidationError("fieldId", err.Error())
		}
	}
	if !field.Type.Valid() {
		return errors.NewValidationError("type", fmt.Sprintf("Unknown field type %q", field.Type))
	}
	if field.Type.NeedsOptions() && len(field.Options) == 0 {
		return errors.NewValidationError("options", fmt.Sprintf("Field type %q requires at least one option", field.Type))
	}
	if field.Type == models.FieldCalculated && !hasCalculateRule(field.Logic) {
		return errors.NewValidationError("logic", "Calculated fields require a calculate logic rule")
	}
	return nil
}

func hasCalculateRule(logic []models.FieldLogic) bool {
	for _, rule := range logic {
		if rule.Action == models.LogicCalculate {
			return true
		}
	}
	return false
}

func applyPatch(field *models.Field, patch FieldPatch) {
	if patch.Name != nil {
		field.Name = *patch.Name
	}
	if patch.Type != nil {
		field.Type = *patch.Type
	}
	if patch.Label != nil {
		field.Label = *patch.Label
	}
	if patch.Placeholder != nil {
		field.Placeholder = *patch.Placeholder
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.Options != nil {
		field.Options = *patch.Options
	}
	if patch.DefaultValue != nil {
		field.DefaultValue = *patch.DefaultValue
	}
	if patch.Validation != nil {
		field.Validation = patch.Validation
	}
	if patch.Logic != nil {
		field.Logic = *patch.Logic
	}
	if patch.Order != nil {
		field.Order = *patch.Order
	}
}
