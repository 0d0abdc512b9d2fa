package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/meridianfc/meridian/internal/config"
	"github.com/meridianfc/meridian/internal/rbac"
)

// SetupRouter creates and configures the Gin router. Every /api route past
// the health check requires a valid token; mutating routes are additionally
// gated on the permission named next to them.
func SetupRouter(h *Handler, cfg *config.Config) *gin.Engine {
	gin.SetMode(ginMode(cfg.Server.Mode))
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsConfig))

	r.GET("/api/health", h.Health)

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/refresh", h.RefreshToken)
	}

	authProtected := r.Group("/auth")
	authProtected.Use(h.AuthMiddleware())
	{
		authProtected.GET("/me", h.GetMe)
		authProtected.POST("/change-password", h.ChangePassword)
		authProtected.POST("/logout", h.Logout)
	}

	api := r.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.GET("/events", h.RequirePermission(rbac.FullKey("dashboard", "view")), h.StreamEvents)

		templates := api.Group("/templates")
		templates.Use(h.RequirePermission(rbac.FullKey("clients", "manageTemplates")))
		{
			templates.GET("", h.ListTemplates)
			templates.POST("", h.CreateTemplate)
			templates.GET("/:id", h.GetTemplate)
			templates.PUT("/:id", h.UpdateTemplate)
			templates.DELETE("/:id", h.DeleteTemplate)

			templates.POST("/:id/tabs", h.AddTab)
			templates.POST("/:id/tabs/:tabId/move", h.MoveTab)
			templates.DELETE("/:id/tabs/:tabId", h.RemoveTab)

			templates.POST("/:id/sections", h.AddSection)
			templates.DELETE("/:id/sections/:sectionId", h.RemoveSection)

			templates.POST("/:id/fields", h.AddField)
			templates.PATCH("/:id/fields/:fieldId", h.UpdateField)
			templates.DELETE("/:id/fields/:fieldId", h.RemoveField)

			templates.POST("/:id/validate", h.ValidateTemplateData)
		}

		api.GET("/permissions", h.RequirePermission(rbac.FullKey("settings", "view")), h.ListPermissions)

		roles := api.Group("/roles")
		{
			roles.GET("", h.RequirePermission(rbac.FullKey("settings", "view")), h.ListRoles)
			roles.GET("/:id", h.RequirePermission(rbac.FullKey("settings", "view")), h.GetRole)
			roles.POST("", h.RequirePermission(rbac.PermManageRoles), h.CreateRole)
			roles.PUT("/:id", h.RequirePermission(rbac.PermManageRoles), h.UpdateRole)
			roles.DELETE("/:id", h.RequirePermission(rbac.PermManageRoles), h.DeleteRole)
		}

		clientRoutes := api.Group("/clients")
		{
			clientRoutes.GET("", h.RequirePermission(rbac.FullKey("clients", "view")), h.ListClients)
			clientRoutes.GET("/:id", h.RequirePermission(rbac.FullKey("clients", "view")), h.GetClient)
			clientRoutes.POST("", h.RequirePermission(rbac.FullKey("clients", "create")), h.CreateClient)
			clientRoutes.PUT("/:id", h.RequirePermission(rbac.FullKey("clients", "edit")), h.UpdateClient)
			clientRoutes.DELETE("/:id", h.RequirePermission(rbac.FullKey("clients", "delete")), h.DeleteClient)

			clientRoutes.POST("/:id/notes", h.RequirePermission(rbac.FullKey("clients", "edit")), h.AddClientNote)
			clientRoutes.POST("/:id/documents", h.RequirePermission(rbac.FullKey("clients", "edit")), h.AddClientDocument)
			clientRoutes.POST("/:id/activities", h.RequirePermission(rbac.FullKey("clients", "edit")), h.AddClientActivity)
			clientRoutes.POST("/:id/template", h.RequirePermission(rbac.FullKey("clients", "edit")), h.AttachClientTemplate)
			clientRoutes.PUT("/:id/template-data", h.RequirePermission(rbac.FullKey("clients", "edit")), h.UpdateClientTemplateData)
		}

		users := api.Group("/users")
		users.Use(h.RequirePermission(rbac.FullKey("settings", "manageUsers")))
		{
			users.GET("", h.ListUsers)
			users.POST("", h.CreateUser)
			users.PUT("/:id", h.UpdateUser)
			users.DELETE("/:id", h.DeleteUser)
		}

		settings := api.Group("/settings")
		{
			settings.GET("", h.RequirePermission(rbac.FullKey("settings", "view")), h.GetSettings)
			settings.GET("/:category", h.RequirePermission(rbac.FullKey("settings", "view")), h.GetSettingsCategory)
			settings.PUT("", h.RequirePermission(rbac.FullKey("settings", "edit")), h.UpdateSetting)
			settings.DELETE("", h.RequirePermission(rbac.FullKey("settings", "edit")), h.DeleteSetting)
		}
	}

	return r
}

func ginMode(mode string) string {
	switch mode {
	case "release", "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
