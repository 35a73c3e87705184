// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// DocumentHandler handles registry read operations and uploads
type DocumentHandler interface {
	HandleUploadDocument(c echo.Context) error
	HandleListDocuments(c echo.Context) error
	HandleExportDocumentsMsgpack(c echo.Context) error
	HandleWatchDocuments(c echo.Context) error
	HandleGetDocument(c echo.Context) error
	HandleUploadStatus(c echo.Context) error
}

// PageHandler serves the server-rendered HTML list and detail views
type PageHandler interface {
	HandleListPage(c echo.Context) error
	HandleDetailPage(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
