package models

import "fmt"

// ErrorKind classifies widget errors. None of them is fatal.
type ErrorKind string

const (
	ErrUnsupportedType    ErrorKind = "UnsupportedType"
	ErrTooLarge           ErrorKind = "TooLarge"
	ErrQuotaExceeded      ErrorKind = "QuotaExceeded"
	ErrPreviewLoadFailure ErrorKind = "PreviewLoadFailure"
	ErrNetworkFailure     ErrorKind = "NetworkFailure"
	ErrServerError        ErrorKind = "ServerError"
	ErrBusy               ErrorKind = "Busy"
)

// WidgetError is a user-visible error raised by one of the widget components.
type WidgetError struct {
	Kind    ErrorKind
	File    string // file name, empty for batch and submission errors
	Message string
	Cause   error
}

// Error implements the error interface
func (e *WidgetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *WidgetError) Unwrap() error { return e.Cause }
