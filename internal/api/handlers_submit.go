// handlers_submit.go - Submission handler
package api

import (
	"errors"
	"net/http"

	"github.com/journal-ai/uploader/internal/submit"
	"github.com/labstack/echo/v4"
)

// SubmitHandlerImpl implements the SubmitHandler interface
type SubmitHandlerImpl struct {
	uploader Uploader
}

// NewSubmitHandler creates a new submit handler
func NewSubmitHandler(uploader Uploader) SubmitHandler {
	return &SubmitHandlerImpl{uploader: uploader}
}

// HandleSubmit posts the queue to the processing endpoint and returns its
// response verbatim
func (h *SubmitHandlerImpl) HandleSubmit(c echo.Context) error {
	resp, err := h.uploader.ProcessUploads(c.Request().Context())
	switch {
	case errors.Is(err, submit.ErrEmptyQueue):
		return NewConflictError("EMPTY_QUEUE", "There are no files to upload")
	case errors.Is(err, submit.ErrSubmissionInProgress):
		return NewConflictError("BUSY", "An upload is already in progress")
	case err != nil:
		return err
	}

	if resp.Raw == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{})
	}
	return c.JSON(http.StatusOK, resp.Raw)
}
