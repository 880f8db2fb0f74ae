// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/journal-ai/uploader/internal/models"
	"github.com/journal-ai/uploader/pkg/logger"
	"github.com/labstack/echo/v4"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-" msgpack:"-"`
	Code    string `json:"code" msgpack:"code"`
	Message string `json:"message" msgpack:"message"`
	Details string `json:"details,omitempty" msgpack:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(code, message string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    code,
		Message: message,
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(code, message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewBadGatewayError creates a 502 error for a failed call to the processing endpoint
func NewBadGatewayError(code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadGateway,
		Code:    code,
		Message: message,
	}
}

// fromWidgetError maps a widget error kind to its HTTP form.
func fromWidgetError(werr *models.WidgetError) *APIError {
	switch werr.Kind {
	case models.ErrNetworkFailure:
		return NewBadGatewayError("NETWORK_FAILURE", werr.Message)
	case models.ErrServerError:
		return NewBadGatewayError("SERVER_ERROR", werr.Message)
	case models.ErrBusy:
		return NewConflictError("BUSY", werr.Message)
	}
	return &APIError{Status: http.StatusUnprocessableEntity, Code: string(werr.Kind), Message: werr.Message}
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		apiErr  *APIError
		httpErr *echo.HTTPError
		werr    *models.WidgetError
	)

	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &werr):
		apiErr = fromWidgetError(werr)
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
		}
	}

	if apiErr.Status >= http.StatusInternalServerError {
		logger.Error(c.Request().Context(), "request failed", "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = RespondWithError(c, apiErr)
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
