// Package models contains domain types for the journal uploader.
package models

import (
	"bytes"
	"io"
)

// PreviewState tracks the asynchronous preview of a pending file.
type PreviewState string

const (
	PreviewLoading PreviewState = "loading"
	PreviewReady   PreviewState = "ready"
	PreviewFailed  PreviewState = "failed"
)

// Source opens the content of a file offered for upload.
// Open may be called more than once (preview and submission).
type Source interface {
	Open() (io.ReadCloser, error)
}

// OpenFunc adapts a function to the Source interface.
type OpenFunc func() (io.ReadCloser, error)

// Open calls f.
func (f OpenFunc) Open() (io.ReadCloser, error) { return f() }

// BytesSource serves file content from memory.
type BytesSource []byte

// Open returns a reader over the bytes.
func (b BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// SourceFile is a file offered to the widget, before validation.
type SourceFile struct {
	Name     string
	MIMEType string
	Size     int64
	Source   Source
}

// PendingFile is a validated file waiting in the upload queue.
type PendingFile struct {
	ID             string       `json:"id" msgpack:"id"`
	Name           string       `json:"name" msgpack:"name"`
	MIMEType       string       `json:"mimeType" msgpack:"mimeType"`
	Size           int64        `json:"sizeBytes" msgpack:"sizeBytes"`
	PreviewDataURL string       `json:"previewDataUrl,omitempty" msgpack:"previewDataUrl,omitempty"`
	PreviewState   PreviewState `json:"previewState" msgpack:"previewState"`
	Source         Source       `json:"-" msgpack:"-"`
}

// ProcessedFile is a history entry for a file that was submitted successfully.
type ProcessedFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MIMEType    string `json:"mimeType"`
	Size        int64  `json:"sizeBytes"`
	ProcessedAt int64  `json:"processedAt"` // Unix ms
}

// Releaser is implemented by sources holding resources that must be freed
// once their entry leaves the queue.
type Releaser interface {
	Release() error
}
