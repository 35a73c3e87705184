// Package upload orchestrates one user-initiated conversion end to end:
// converter call, record construction, registry insertion.
package upload

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docshelf/backend/internal/convert"
	"github.com/docshelf/backend/internal/models"
	"github.com/docshelf/backend/internal/registry"
)

// State of the controller. Uploads are serialized: a second attempt while
// one is in flight is rejected, never queued.
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
)

// ErrUploadInFlight rejects an upload while another one is running.
var ErrUploadInFlight = errors.New("upload: another upload is in flight")

// Controller runs one conversion at a time and is the only component that
// constructs ProcessedFile records.
type Controller struct {
	mu        sync.Mutex
	state     State
	converter convert.Converter
	store     registry.Store
	log       *zap.Logger

	now func() time.Time
}

// NewController creates an idle Controller.
func NewController(converter convert.Converter, store registry.Store, log *zap.Logger) *Controller {
	return &Controller{
		state:     StateIdle,
		converter: converter,
		store:     store,
		log:       log,
		now:       time.Now,
	}
}

// State returns the current upload state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Process converts one file and inserts the resulting record. On any
// failure the registry is left untouched and the state returns to Idle.
// Once the request is dispatched it runs to completion or failure; there
// is no cancellation beyond the caller's context.
func (c *Controller) Process(ctx context.Context, filename string, r io.Reader) (*models.ProcessedFile, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrUploadInFlight
	}
	c.state = StateUploading
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
	}()

	res, err := c.converter.Convert(ctx, filename, r)
	if err != nil {
		c.log.Warn("conversion failed",
			zap.String("filename", filename), zap.Error(err))
		return nil, err
	}

	name := res.Filename
	if name == "" {
		// The service may omit the filename; the submitted name stands in.
		name = filename
	}

	rec := &models.ProcessedFile{
		ID:          uuid.New().String(),
		Filename:    name,
		Content:     res.Content,
		ProcessedAt: c.now(),
	}

	if err := c.store.Insert(rec); err != nil {
		c.log.Error("registry insert failed",
			zap.String("filename", name), zap.Error(err))
		return nil, err
	}

	c.log.Info("document processed",
		zap.String("id", rec.ID),
		zap.String("filename", rec.Filename),
		zap.Int("contentBytes", len(rec.Content)))
	return rec, nil
}
