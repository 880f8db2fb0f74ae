// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	uploader Uploader
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, uploader Uploader) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		uploader: uploader,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"state":   h.uploader.State(),
		"queued":  len(h.uploader.Queue()),
	})
}
