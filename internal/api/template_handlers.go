package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meridianfc/meridian/internal/models"
	"github.com/meridianfc/meridian/internal/template"
)

// ListTemplates returns all client templates
// GET /api/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// GetTemplate returns one template
// GET /api/templates/:id
func (h *Handler) GetTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tpl, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// CreateTemplate creates an empty template
// POST /api/templates
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	tpl, err := h.templates.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

// UpdateTemplate updates a template's name, description and default flag
// PUT /api/templates/:id
func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		IsDefault   bool   `json:"is_default"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	tpl, err := h.templates.UpdateInfo(c.Request.Context(), id, req.Name, req.Description, req.IsDefault)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// DeleteTemplate removes a template
// DELETE /api/templates/:id
func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "template deleted"})
}

// AddTab appends a tab to a template
// POST /api/templates/:id/tabs
func (h *Handler) AddTab(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	tpl, err := h.templates.AddTab(c.Request.Context(), id, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// MoveTab moves a tab up or down in the tab order
// POST /api/templates/:id/tabs/:tabId/move
func (h *Handler) MoveTab(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Direction template.MoveDirection `json:"direction" binding:"required"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	tpl, err := h.templates.MoveTab(c.Request.Context(), id, c.Param("tabId"), req.Direction)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// RemoveTab removes a tab and reports which tab should be selected next
// DELETE /api/templates/:id/tabs/:tabId
func (h *Handler) RemoveTab(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tpl, selected, err := h.templates.RemoveTab(c.Request.Context(), id, c.Param("tabId"), c.Query("selected"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": tpl, "selected_tab": selected})
}

// AddSection appends a section to a bundle or tab. The locator is
// "basicInfo", "preferences" or a tab id.
// POST /api/templates/:id/sections
func (h *Handler) AddSection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Locator     string `json:"locator" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Label       string `json:"label"`
		Description string `json:"description"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	tpl, err := h.templates.AddSection(c.Request.Context(), id, req.Locator, req.Name, req.Label, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// RemoveSection removes a section from a bundle or tab
// DELETE /api/templates/:id/sections/:sectionId
func (h *Handler) RemoveSection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tpl, err := h.templates.RemoveSection(c.Request.Context(), id, c.Query("locator"), c.Param("sectionId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// AddField appends a field to a section
// POST /api/templates/:id/fields
func (h *Handler) AddField(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Locator   string       `json:"locator" binding:"required"`
		SectionID string       `json:"section_id" binding:"required"`
		Field     models.Field `json:"field" binding:"required"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	tpl, err := h.templates.AddField(c.Request.Context(), id, req.Locator, req.SectionID, req.Field)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// UpdateField applies a partial update to a field
// PATCH /api/templates/:id/fields/:fieldId
func (h *Handler) UpdateField(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch template.FieldPatch
	if !h.bindJSON(c, &patch) {
		return
	}

	tpl, err := h.templates.UpdateField(c.Request.Context(), id, c.Param("fieldId"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// RemoveField removes a field from whichever section holds it
// DELETE /api/templates/:id/fields/:fieldId
func (h *Handler) RemoveField(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tpl, err := h.templates.RemoveField(c.Request.Context(), id, c.Param("fieldId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// ValidateTemplateData checks a data payload against a template without
// storing anything; data problems come back in the result body
// POST /api/templates/:id/validate
func (h *Handler) ValidateTemplateData(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var data models.TemplateData
	if !h.bindJSON(c, &data) {
		return
	}

	tpl, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := template.ValidateTemplateData(tpl, &data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
