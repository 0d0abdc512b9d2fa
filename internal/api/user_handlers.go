package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meridianfc/meridian/internal/auth"
	"github.com/meridianfc/meridian/internal/errors"
	"github.com/meridianfc/meridian/internal/models"
)

// ListUsers returns all dashboard users
// GET /api/users
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.stores.Users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// CreateUser creates a dashboard user
// POST /api/users
func (h *Handler) CreateUser(c *gin.Context) {
	var req struct {
		Email     string     `json:"email" binding:"required,email"`
		Password  string     `json:"password" binding:"required,min=8"`
		FirstName string     `json:"first_name"`
		LastName  string     `json:"last_name"`
		RoleID    *uuid.UUID `json:"role_id"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	if existing, err := h.stores.Users.GetByEmail(c.Request.Context(), req.Email); err == nil && existing != nil {
		h.respondError(c, errors.NewConflictError("user"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.respondError(c, errors.NewInternalError(err))
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		RoleID:       req.RoleID,
		IsActive:     true,
	}
	if err := h.stores.Users.Create(c.Request.Context(), user); err != nil {
		h.respondError(c, errors.NewInternalError(err))
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// UpdateUser edits a user's profile, role assignment and active flag
// PUT /api/users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		FirstName string     `json:"first_name"`
		LastName  string     `json:"last_name"`
		RoleID    *uuid.UUID `json:"role_id"`
		IsActive  *bool      `json:"is_active"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.stores.Users.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, errors.NewNotFoundError("user"))
		return
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.RoleID = req.RoleID
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.stores.Users.Update(c.Request.Context(), user); err != nil {
		h.respondError(c, errors.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// DeleteUser removes a dashboard user
// DELETE /api/users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if self := actorID(c); self != nil && *self == id {
		h.respondError(c, errors.NewValidationError("id", "You cannot delete your own account"))
		return
	}
	if err := h.stores.Users.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, errors.NewNotFoundError("user"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
