package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/docshelf/backend/internal/convert"
	"github.com/docshelf/backend/internal/models"
	"github.com/docshelf/backend/internal/registry"
	"github.com/docshelf/backend/internal/testutil"
	"github.com/docshelf/backend/internal/upload"
	"github.com/docshelf/backend/internal/web"
)

func setupHandlers(t *testing.T, mock *testutil.MockConverter) (*Handlers, *registry.FileStore) {
	t.Helper()

	store := registry.NewFileStore(filepath.Join(t.TempDir(), "registry.json"), zap.NewNop())
	require.NoError(t, store.Load())

	controller := upload.NewController(mock, store, zap.NewNop())
	handlers := NewHandlers(&Dependencies{
		Store:      store,
		Controller: controller,
		Renderer:   web.NewRenderer(),
		Logger:     zap.NewNop(),
		Version:    "test",
	})
	return handlers, store
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestUploadListDetailFlow(t *testing.T) {
	e := echo.New()
	mock := &testutil.MockConverter{
		Result: &convert.Result{Content: "# Report\nBody text.", Filename: "report.pdf"},
	}
	h, _ := setupHandlers(t, mock)

	// 1. Upload report.pdf
	req := multipartUpload(t, "report.pdf", []byte("%PDF-1.4"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.Document.HandleUploadDocument(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created models.ProcessedFile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "report.pdf", created.Filename)
	assert.Equal(t, "# Report\nBody text.", created.Content)

	// 2. The list has the new record at index 0
	req = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	require.NoError(t, h.Document.HandleListDocuments(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var listed []models.ProcessedFile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	// 3. The detail view renders the same content
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+created.ID, nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	require.NoError(t, h.Document.HandleGetDocument(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"# Report\nBody text."`)
}

func TestGetDocumentNotFound(t *testing.T) {
	e := echo.New()
	h, _ := setupHandlers(t, &testutil.MockConverter{})

	req := httptest.NewRequest(http.MethodGet, "/api/documents/missing-id", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing-id")

	err := h.Document.HandleGetDocument(c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestUploadConversionFailure(t *testing.T) {
	e := echo.New()
	mock := &testutil.MockConverter{
		Err: &convert.ConversionError{Status: 422, Cause: "unsupported format"},
	}
	h, store := setupHandlers(t, mock)

	req := multipartUpload(t, "weird.bin", []byte{0x00})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Document.HandleUploadDocument(c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "CONVERSION_FAILED", apiErr.Code)
	assert.Empty(t, store.All(), "failed upload must not create a record")
}

func TestUploadWithoutFile(t *testing.T) {
	e := echo.New()
	h, _ := setupHandlers(t, &testutil.MockConverter{})

	req := httptest.NewRequest(http.MethodPost, "/api/documents", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Document.HandleUploadDocument(c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestListBeforeLoad(t *testing.T) {
	e := echo.New()

	store := registry.NewFileStore(filepath.Join(t.TempDir(), "registry.json"), zap.NewNop())
	controller := upload.NewController(&testutil.MockConverter{}, store, zap.NewNop())
	h := NewHandlers(&Dependencies{
		Store:      store,
		Controller: controller,
		Renderer:   web.NewRenderer(),
		Logger:     zap.NewNop(),
		Version:    "test",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Document.HandleListDocuments(c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "REGISTRY_LOADING", apiErr.Code)
}

func TestExportMsgpack(t *testing.T) {
	e := echo.New()
	mock := &testutil.MockConverter{
		Result: &convert.Result{Content: "# Export me\n", Filename: "export.pdf"},
	}
	h, _ := setupHandlers(t, mock)

	req := multipartUpload(t, "export.pdf", []byte("%PDF"))
	rec := httptest.NewRecorder()
	require.NoError(t, h.Document.HandleUploadDocument(e.NewContext(req, rec)))

	req = httptest.NewRequest(http.MethodGet, "/api/documents/export/msgpack", nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.Document.HandleExportDocumentsMsgpack(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get(echo.HeaderContentType))

	var decoded []models.ProcessedFile
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "export.pdf", decoded[0].Filename)
}

func TestUploadStatus(t *testing.T) {
	e := echo.New()
	h, _ := setupHandlers(t, &testutil.MockConverter{})

	req := httptest.NewRequest(http.MethodGet, "/api/upload/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.Document.HandleUploadStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"idle"`)
}

func TestPageHandlers(t *testing.T) {
	e := echo.New()
	mock := &testutil.MockConverter{
		Result: &convert.Result{Content: "# Page Title\nSome text.", Filename: "page.pdf"},
	}
	h, store := setupHandlers(t, mock)

	// Empty state before any upload
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Page.HandleListPage(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No documents yet")

	// Upload one document
	req = multipartUpload(t, "page.pdf", []byte("%PDF"))
	rec = httptest.NewRecorder()
	require.NoError(t, h.Document.HandleUploadDocument(e.NewContext(req, rec)))
	id := store.All()[0].ID

	// List page links to it
	req = httptest.NewRequest(http.MethodGet, "/documents", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h.Page.HandleListPage(e.NewContext(req, rec)))
	assert.Contains(t, rec.Body.String(), "/documents/"+id)
	assert.Contains(t, rec.Body.String(), "page.pdf")

	// Detail page renders the markdown as HTML
	req = httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.Page.HandleDetailPage(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Page Title</h1>")

	// Missing id renders the not-found page, no error propagates
	req = httptest.NewRequest(http.MethodGet, "/documents/ghost", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	require.NoError(t, h.Page.HandleDetailPage(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Document not found")
}
