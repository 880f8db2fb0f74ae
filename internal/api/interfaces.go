// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/journal-ai/uploader/internal/models"
	"github.com/journal-ai/uploader/internal/results"
	"github.com/journal-ai/uploader/internal/submit"
	"github.com/journal-ai/uploader/internal/upload"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// QueueHandler handles the pending upload queue
type QueueHandler interface {
	HandleListQueue(c echo.Context) error
	HandleAddFiles(c echo.Context) error
	HandleRemoveFile(c echo.Context) error
}

// SubmitHandler handles submission of the queue
type SubmitHandler interface {
	HandleSubmit(c echo.Context) error
}

// ResultsHandler handles the results views and processed history
type ResultsHandler interface {
	HandleGetResults(c echo.Context) error
	HandleSelectTab(c echo.Context) error
	HandleGetHistory(c echo.Context) error
}

// EventsHandler streams widget events over a websocket
type EventsHandler interface {
	HandleEvents(c echo.Context) error
}

// Uploader defines the widget operations the handlers depend on.
// This allows mocking in tests
type Uploader interface {
	HandleFiles(files []models.SourceFile) upload.AddResult
	RemoveFile(id string) error
	ProcessUploads(ctx context.Context) (*models.ProcessResponse, error)
	Queue() []models.PendingFile
	CanSubmit() bool
	State() submit.State
	Results() *results.Presenter
	History() []models.ProcessedFile
	Config() models.ValidationConfig
}
