// Package api exposes the Meridian admin backend over HTTP: authentication,
// client templates, roles, clients, users and system settings.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/meridianfc/meridian/internal/auth"
	"github.com/meridianfc/meridian/internal/clients"
	"github.com/meridianfc/meridian/internal/config"
	"github.com/meridianfc/meridian/internal/errors"
	"github.com/meridianfc/meridian/internal/rbac"
	"github.com/meridianfc/meridian/internal/store"
	"github.com/meridianfc/meridian/internal/template"
)

// Handler carries the services the HTTP layer dispatches into
type Handler struct {
	stores    *store.Stores
	templates *template.Engine
	roles     *rbac.Service
	clients   *clients.Service
	config    *config.Service
	jwt       *auth.JWTService
	log       zerolog.Logger
	started   time.Time
}

// NewHandler creates the HTTP handler bundle
func NewHandler(stores *store.Stores, templates *template.Engine, roles *rbac.Service, clientSvc *clients.Service, cfg *config.Service, jwt *auth.JWTService, log zerolog.Logger) *Handler {
	return &Handler{
		stores:    stores,
		templates: templates,
		roles:     roles,
		clients:   clientSvc,
		config:    cfg,
		jwt:       jwt,
		log:       log.With().Str("component", "api").Logger(),
		started:   time.Now(),
	}
}

// Health returns service liveness
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).String(),
	})
}

// respondError maps a service error onto the HTTP response
func (h *Handler) respondError(c *gin.Context, err error) {
	status, body := errors.ToHTTPError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, body)
}

// bindJSON binds the request body, reporting bind failures uniformly
func (h *Handler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return false
	}
	return true
}
