package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSettings returns all non-secret configuration values
// GET /api/settings
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": h.config.GetAllConfig()})
}

// GetSettingsCategory returns the configuration of one category
// GET /api/settings/:category
func (h *Handler) GetSettingsCategory(c *gin.Context) {
	category := c.Param("category")
	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"settings": h.config.GetCategory(category),
	})
}

// UpdateSetting upserts a single configuration value
// PUT /api/settings
func (h *Handler) UpdateSetting(c *gin.Context) {
	var req struct {
		Key      string `json:"key" binding:"required"`
		Value    string `json:"value"`
		Category string `json:"category" binding:"required"`
		IsSecret bool   `json:"is_secret"`
	}
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.config.Set(req.Key, req.Value, req.Category, req.IsSecret); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "setting updated"})
}

// DeleteSetting removes a configuration value named by the key query
// parameter
// DELETE /api/settings?key=...
func (h *Handler) DeleteSetting(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	if err := h.config.Delete(key); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "setting deleted"})
}
