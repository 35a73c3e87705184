// Package convert calls the external service that turns a raw document
// into markdown text.
package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// fileField is the multipart field the conversion service reads the
// document bytes from.
const fileField = "file"

// Result is a successful conversion response. Filename may be empty when
// the service omits it; callers fall back to the submitted name.
type Result struct {
	Content  string
	Filename string
}

// ConversionError reports a failed conversion call with a human-readable
// cause. Status is the HTTP status when one was received, 0 for transport
// failures.
type ConversionError struct {
	Status int
	Cause  string
}

func (e *ConversionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("conversion failed (status %d): %s", e.Status, e.Cause)
	}
	return "conversion failed: " + e.Cause
}

// Converter is implemented by Client; declared so handlers and the upload
// controller can be tested against a double.
type Converter interface {
	Convert(ctx context.Context, filename string, r io.Reader) (*Result, error)
}

// Client performs exactly one conversion request per Convert call.
// No retries, no batching, and no registry access.
type Client struct {
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

// NewClient creates a Client posting to the given endpoint.
func NewClient(endpoint string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// processUploadResponse mirrors the conversion service's success document.
// Content is a pointer so an absent field is distinguishable from "".
type processUploadResponse struct {
	Content  *string `json:"content"`
	Filename string  `json:"filename"`
	Object   string  `json:"object"`
}

// Convert submits the file bytes as a multipart upload and returns the
// markdown content. A success status whose content field is missing or
// empty is still a failure; an empty document must never pass as a
// successful conversion.
func (c *Client) Convert(ctx context.Context, filename string, r io.Reader) (*Result, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, &ConversionError{Cause: "building request: " + err.Error()}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &ConversionError{Cause: "reading file: " + err.Error()}
	}
	if err := w.Close(); err != nil {
		return nil, &ConversionError{Cause: "building request: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, &ConversionError{Cause: "building request: " + err.Error()}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	c.log.Debug("dispatching conversion request",
		zap.String("filename", filename), zap.String("endpoint", c.endpoint))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ConversionError{Cause: "conversion service unreachable: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ConversionError{
			Status: resp.StatusCode,
			Cause:  fmt.Sprintf("service returned %s: %s", resp.Status, bytes.TrimSpace(snippet)),
		}
	}

	var out processUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ConversionError{
			Status: resp.StatusCode,
			Cause:  "malformed response body: " + err.Error(),
		}
	}

	if out.Content == nil || *out.Content == "" {
		return nil, &ConversionError{
			Status: resp.StatusCode,
			Cause:  "response carried no content",
		}
	}

	return &Result{Content: *out.Content, Filename: out.Filename}, nil
}

// Ensure Client implements Converter
var _ Converter = (*Client)(nil)
