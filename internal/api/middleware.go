package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meridianfc/meridian/internal/models"
)

const (
	ctxUserID = "user_id"
	ctxRoleID = "role_id"
	ctxRole   = "actor_role"
)

// AuthMiddleware validates the Bearer token and loads the actor's user and
// role into the request context. The role is re-read on every request, so a
// permission edit takes effect without re-issuing tokens.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		claims, err := h.jwt.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := h.stores.Users.Get(c.Request.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found or disabled"})
			return
		}

		c.Set(ctxUserID, user.ID)
		if user.RoleID != nil {
			c.Set(ctxRoleID, *user.RoleID)
			if role, err := h.stores.Roles.Get(c.Request.Context(), *user.RoleID); err == nil {
				c.Set(ctxRole, role)
			}
		}

		c.Next()
	}
}

// RequirePermission gates a route on a fully-qualified permission key
func (h *Handler) RequirePermission(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID, ok := roleIDFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no role assigned"})
			return
		}

		allowed, err := h.roles.Check(c.Request.Context(), roleID, key)
		if err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "permission denied",
				"permission": key,
			})
			return
		}

		c.Next()
	}
}

// actorID returns the authenticated user's id, if any
func actorID(c *gin.Context) *uuid.UUID {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	return nil
}

// actorRole returns the authenticated user's role, if any
func actorRole(c *gin.Context) *models.Role {
	if v, ok := c.Get(ctxRole); ok {
		if role, ok := v.(*models.Role); ok {
			return role
		}
	}
	return nil
}

func roleIDFrom(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxRoleID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// parseID parses a :id style path parameter, writing the error response
// itself on failure
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
