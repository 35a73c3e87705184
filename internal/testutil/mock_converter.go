// mock_converter.go - Mock conversion client for testing
package testutil

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/docshelf/backend/internal/convert"
)

// MockConverter implements convert.Converter for testing
type MockConverter struct {
	// Result and Err are returned by Convert. Err wins when both are set.
	Result *convert.Result
	Err    error

	// Release, when non-nil, blocks Convert until the channel is closed.
	// Used to hold an upload in flight.
	Release chan struct{}

	calls int64
}

// Convert returns the configured result after optionally blocking.
func (m *MockConverter) Convert(ctx context.Context, filename string, r io.Reader) (*convert.Result, error) {
	atomic.AddInt64(&m.calls, 1)

	// Drain the reader like the real client does
	if r != nil {
		_, _ = io.Copy(io.Discard, r)
	}

	if m.Release != nil {
		select {
		case <-m.Release:
		case <-ctx.Done():
			return nil, &convert.ConversionError{Cause: ctx.Err().Error()}
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		res := *m.Result
		return &res, nil
	}
	return &convert.Result{Content: "# converted\n", Filename: filename}, nil
}

// Calls returns how many times Convert was invoked.
func (m *MockConverter) Calls() int {
	return int(atomic.LoadInt64(&m.calls))
}

// Ensure MockConverter implements convert.Converter
var _ convert.Converter = (*MockConverter)(nil)
