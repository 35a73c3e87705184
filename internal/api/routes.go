// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/docshelf/backend/internal/registry"
	"github.com/docshelf/backend/internal/upload"
	"github.com/docshelf/backend/internal/web"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store      registry.Store
	Controller *upload.Controller
	Renderer   *web.Renderer
	Logger     *zap.Logger
	Version    string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Document DocumentHandler
	Page     PageHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version),
		Document: NewDocumentHandler(deps.Store, deps.Controller, deps.Logger),
		Page:     NewPageHandler(deps.Store, deps.Renderer, deps.Logger),
	}
}

// RegisterRoutes registers all routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Document registry routes
	docGroup := e.Group("/api/documents")
	docGroup.POST("", handlers.Document.HandleUploadDocument)
	docGroup.GET("", handlers.Document.HandleListDocuments)
	docGroup.GET("/export/msgpack", handlers.Document.HandleExportDocumentsMsgpack)
	docGroup.GET("/watch", handlers.Document.HandleWatchDocuments)
	docGroup.GET("/:id", handlers.Document.HandleGetDocument)

	// Upload state
	e.GET("/api/upload/status", handlers.Document.HandleUploadStatus)

	// Server-rendered views
	e.GET("/documents", handlers.Page.HandleListPage)
	e.GET("/documents/:id", handlers.Page.HandleDetailPage)
}
