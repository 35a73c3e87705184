// handlers_pages.go - Server-rendered HTML list and detail views
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/docshelf/backend/internal/registry"
	"github.com/docshelf/backend/internal/web"
)

// PageHandlerImpl implements the PageHandler interface
type PageHandlerImpl struct {
	store    registry.Store
	renderer *web.Renderer
	log      *zap.Logger
}

// NewPageHandler creates a new page handler instance
func NewPageHandler(store registry.Store, renderer *web.Renderer, log *zap.Logger) PageHandler {
	return &PageHandlerImpl{
		store:    store,
		renderer: renderer,
		log:      log,
	}
}

// HandleListPage renders the document list. Before the registry load has
// completed it renders the loading state, with zero records the empty
// state; both are distinct pages, not errors.
func (h *PageHandlerImpl) HandleListPage(c echo.Context) error {
	loaded := h.store.Loaded()
	html, err := h.renderer.ListPage(h.store.All(), loaded)
	if err != nil {
		return NewInternalError("failed to render list page", err)
	}
	return c.HTML(http.StatusOK, html)
}

// HandleDetailPage resolves one record by id and renders its content. A
// miss renders the not-found page with a 404 status, a normal outcome.
func (h *PageHandlerImpl) HandleDetailPage(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	rec, err := h.store.Get(id)
	if err != nil {
		html, rerr := h.renderer.NotFoundPage(id)
		if rerr != nil {
			return NewInternalError("failed to render not-found page", rerr)
		}
		return c.HTML(http.StatusNotFound, html)
	}

	html, err := h.renderer.DetailPage(rec)
	if err != nil {
		return NewInternalError("failed to render detail page", err)
	}
	return c.HTML(http.StatusOK, html)
}
