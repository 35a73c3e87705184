// handlers_documents.go - Registry and upload operation handlers
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/docshelf/backend/internal/convert"
	"github.com/docshelf/backend/internal/registry"
	"github.com/docshelf/backend/internal/upload"
)

// DocumentHandlerImpl implements the DocumentHandler interface
type DocumentHandlerImpl struct {
	store      registry.Store
	controller *upload.Controller
	log        *zap.Logger
}

// NewDocumentHandler creates a new document handler instance
func NewDocumentHandler(store registry.Store, controller *upload.Controller, log *zap.Logger) DocumentHandler {
	return &DocumentHandlerImpl{
		store:      store,
		controller: controller,
		log:        log,
	}
}

// HandleUploadDocument accepts a multipart file upload, runs it through the
// conversion pipeline and returns the new registry record
func (h *DocumentHandlerImpl) HandleUploadDocument(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	rec, err := h.controller.Process(c.Request().Context(), file.Filename, src)
	if err != nil {
		var convErr *convert.ConversionError
		switch {
		case errors.Is(err, upload.ErrUploadInFlight):
			return NewConflictError("an upload is already in flight")
		case errors.As(err, &convErr):
			return NewConversionFailedError(convErr)
		default:
			return NewInternalError("failed to store processed file", err)
		}
	}

	return c.JSON(http.StatusCreated, rec)
}

// HandleListDocuments returns all registry records, most recent first
func (h *DocumentHandlerImpl) HandleListDocuments(c echo.Context) error {
	if !h.store.Loaded() {
		return NewRegistryLoadingError()
	}
	return c.JSON(http.StatusOK, h.store.All())
}

// HandleExportDocumentsMsgpack returns the registry in MessagePack format
func (h *DocumentHandlerImpl) HandleExportDocumentsMsgpack(c echo.Context) error {
	if !h.store.Loaded() {
		return NewRegistryLoadingError()
	}

	data, err := msgpack.Marshal(h.store.All())
	if err != nil {
		return NewInternalError("failed to encode registry", err)
	}

	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}

// HandleWatchDocuments streams insert events via SSE so a mounted list
// view re-renders on mutation instead of relying on its initial read
func (h *DocumentHandlerImpl) HandleWatchDocuments(c echo.Context) error {
	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	events := h.store.Subscribe()
	defer h.store.Unsubscribe(events)

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.log.Error("encoding registry event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", payload); err != nil {
				return nil
			}
			c.Response().Flush()
		}
	}
}

// HandleGetDocument returns one record by id. A miss is a normal outcome
// and maps to a structured 404
func (h *DocumentHandlerImpl) HandleGetDocument(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	rec, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("document", id)
	}

	return c.JSON(http.StatusOK, rec)
}

// HandleUploadStatus returns the current upload controller state
func (h *DocumentHandlerImpl) HandleUploadStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"state": h.controller.State(),
	})
}
