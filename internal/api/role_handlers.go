package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meridianfc/meridian/internal/rbac"
)

// ListPermissions returns the grantable permission catalog
// GET /api/permissions
func (h *Handler) ListPermissions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": rbac.Catalog()})
}

// ListRoles returns all roles with live user counts
// GET /api/roles
func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

// GetRole returns one role together with its effective permission set
// GET /api/roles/:id
func (h *Handler) GetRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	role, err := h.roles.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	set, err := h.roles.Permissions(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"role":                  role,
		"effective_permissions": set.Sorted(),
	})
}

// CreateRole creates a role below the actor's authority
// POST /api/roles
func (h *Handler) CreateRole(c *gin.Context) {
	var input rbac.RoleInput
	if !h.bindJSON(c, &input) {
		return
	}

	role, err := h.roles.Create(c.Request.Context(), actorRole(c), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

// UpdateRole edits a role
// PUT /api/roles/:id
func (h *Handler) UpdateRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input rbac.RoleInput
	if !h.bindJSON(c, &input) {
		return
	}

	role, err := h.roles.Update(c.Request.Context(), actorRole(c), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// DeleteRole removes a role. System roles and roles with assigned users
// are rejected.
// DELETE /api/roles/:id
func (h *Handler) DeleteRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.roles.Delete(c.Request.Context(), actorRole(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role deleted"})
}
