package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meridianfc/meridian/internal/clients"
	"github.com/meridianfc/meridian/internal/models"
)

// ListClients returns all client records, optionally narrowed by the q
// search parameter
// GET /api/clients?q=...
func (h *Handler) ListClients(c *gin.Context) {
	records, err := h.clients.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": records})
}

// GetClient returns one client record
// GET /api/clients/:id
func (h *Handler) GetClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	client, err := h.clients.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// CreateClient creates a client record
// POST /api/clients
func (h *Handler) CreateClient(c *gin.Context) {
	var input clients.Input
	if !h.bindJSON(c, &input) {
		return
	}

	client, err := h.clients.Create(c.Request.Context(), actorID(c), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// UpdateClient edits a client's base attributes
// PUT /api/clients/:id
func (h *Handler) UpdateClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input clients.Input
	if !h.bindJSON(c, &input) {
		return
	}

	client, err := h.clients.Update(c.Request.Context(), actorID(c), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient removes a client record permanently
// DELETE /api/clients/:id
func (h *Handler) DeleteClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.clients.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "client deleted"})
}

// AddClientNote appends a note to the client
// POST /api/clients/:id/notes
func (h *Handler) AddClientNote(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	client, err := h.clients.AddNote(c.Request.Context(), actorID(c), id, req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// AddClientDocument appends document metadata to the client
// POST /api/clients/:id/documents
func (h *Handler) AddClientDocument(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
		URL  string `json:"url"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	client, err := h.clients.AddDocument(c.Request.Context(), actorID(c), id, req.Name, req.URL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// AddClientActivity appends an activity entry to the client
// POST /api/clients/:id/activities
func (h *Handler) AddClientActivity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Kind        string `json:"kind" binding:"required"`
		Description string `json:"description"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	client, err := h.clients.AddActivity(c.Request.Context(), actorID(c), id, req.Kind, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// AttachClientTemplate assigns a template to the client and initializes an
// empty data payload
// POST /api/clients/:id/template
func (h *Handler) AttachClientTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		TemplateID uuid.UUID `json:"template_id" binding:"required"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	client, err := h.clients.AttachTemplate(c.Request.Context(), actorID(c), id, req.TemplateID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// UpdateClientTemplateData validates and stores the client's custom data
// payload. Validation problems come back with the unmodified record.
// PUT /api/clients/:id/template-data
func (h *Handler) UpdateClientTemplateData(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var data models.TemplateData
	if !h.bindJSON(c, &data) {
		return
	}

	client, result, err := h.clients.UpdateTemplateData(c.Request.Context(), actorID(c), id, &data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client, "validation": result})
}
