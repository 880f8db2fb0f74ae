package models

import "time"

// NotificationLevel is the toast style of a notification.
type NotificationLevel string

const (
	NotificationError   NotificationLevel = "error"
	NotificationSuccess NotificationLevel = "success"
)

// Notification is a user-visible message raised by the widget.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
	Kind    ErrorKind         `json:"kind,omitempty"`
	At      time.Time         `json:"at"`
}
