package widget

import (
	"log/slog"

	"github.com/journal-ai/uploader/internal/models"
	"github.com/journal-ai/uploader/internal/submit"
)

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n models.Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n models.Notification)

// Notify calls f.
func (f NotifierFunc) Notify(n models.Notification) { f(n) }

// LogNotifier writes notifications to the default slog logger.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(n models.Notification) {
	if n.Level == models.NotificationError {
		slog.Warn(n.Message, "kind", n.Kind)
		return
	}
	slog.Info(n.Message)
}

// EventType names a widget event.
type EventType string

const (
	EventQueue        EventType = "queue"
	EventPreview      EventType = "preview"
	EventNotification EventType = "notification"
	EventState        EventType = "state"
	EventResults      EventType = "results"
)

// Event describes a change of widget state. Only the fields relevant to
// Type are set.
type Event struct {
	Type         EventType            `json:"type" msgpack:"type"`
	Queue        []models.PendingFile `json:"queue,omitempty" msgpack:"queue,omitempty"`
	File         *models.PendingFile  `json:"file,omitempty" msgpack:"file,omitempty"`
	Notification *models.Notification `json:"notification,omitempty" msgpack:"notification,omitempty"`
	State        submit.State         `json:"state,omitempty" msgpack:"state,omitempty"`
	Response     map[string]any       `json:"response,omitempty" msgpack:"response,omitempty"`
}
