package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"willstech-admin/internal/auth"
	"willstech-admin/internal/backup"
	"willstech-admin/internal/editor"
	"willstech-admin/internal/logger"
	"willstech-admin/internal/ws"
)

type RouterDeps struct {
	Editor         *editor.Editor
	Settings       SettingsStore
	History        HistoryStore
	Snapshots      *backup.Writer
	Auth           *auth.Service
	Hub            *ws.Hub
	NewBackend     BackendFactory
	Logger         *logger.Logger
	AllowedOrigins []string
}

func NewRouter(d RouterDeps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("api")

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(log), CORS(d.AllowedOrigins))

	authHandler := NewAuthHandler(d.Auth, log)
	healthHandler := NewHealthHandler(d.Editor)
	siteHandler := NewSiteHandler(d.Editor, log)
	productHandler := NewProductHandler(d.Editor, log)
	settingsHandler := NewSettingsHandler(d.Settings, d.Editor, d.NewBackend, log)
	historyHandler := NewHistoryHandler(d.History, d.Snapshots, log)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", RequireAuth(d.Auth), gin.WrapF(d.Hub.ServeWs))

	r.POST("/api/login", authHandler.Login)
	r.GET("/api/health", healthHandler.Health)

	apiGroup := r.Group("/api", RequireAuth(d.Auth))
	{
		apiGroup.GET("/site", siteHandler.GetSite)
		apiGroup.POST("/sync", siteHandler.Sync)
		apiGroup.PUT("/site/hero", siteHandler.UpdateHero)
		apiGroup.PUT("/site/content", siteHandler.UpdateContent)
		apiGroup.PUT("/site/social", siteHandler.UpdateSocial)

		// Product Routes
		apiGroup.GET("/products", productHandler.ListProducts)
		apiGroup.POST("/products", productHandler.CreateProduct)
		apiGroup.POST("/products/bulk", productHandler.BulkStatus)
		apiGroup.GET("/products/export", productHandler.ExportProducts)
		apiGroup.POST("/products/import", productHandler.ImportProducts)
		apiGroup.PUT("/products/:id", productHandler.UpdateProduct)
		apiGroup.DELETE("/products/:id", productHandler.DeleteProduct)
		apiGroup.POST("/products/:id/toggle", productHandler.ToggleProduct)

		// Backup Routes
		apiGroup.GET("/backup", siteHandler.Backup)
		apiGroup.POST("/restore", siteHandler.Restore)
		apiGroup.POST("/deploy", siteHandler.Deploy)
		apiGroup.GET("/backups", historyHandler.ListSnapshots)
		apiGroup.GET("/backups/:name", historyHandler.GetSnapshot)

		// Settings Routes
		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.PUT("/settings", settingsHandler.UpdateSettings)
		apiGroup.POST("/settings/verify", settingsHandler.VerifySettings)

		apiGroup.GET("/history", historyHandler.GetHistory)
	}

	return r
}
