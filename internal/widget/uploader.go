// Package widget composes the upload queue, preview renderer, submission
// controller and results presenter into one journal uploader.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/journal-ai/uploader/internal/models"
	"github.com/journal-ai/uploader/internal/preview"
	"github.com/journal-ai/uploader/internal/results"
	"github.com/journal-ai/uploader/internal/submit"
	"github.com/journal-ai/uploader/internal/upload"
	"github.com/journal-ai/uploader/internal/validate"
	"github.com/journal-ai/uploader/pkg/logger"
)

// maxNotifications bounds the notification backlog kept for late readers.
const maxNotifications = 50

// ErrBusy is returned for queue mutations attempted during a submission.
var ErrBusy = &models.WidgetError{Kind: models.ErrBusy, Message: "An upload is already in progress"}

// Options configures an Uploader. Zero limits fall back to the defaults.
type Options struct {
	MaxFiles     int
	AllowedTypes []string
	MaxSizeMB    float64

	Endpoint   string
	HTTPClient *http.Client

	ThumbnailEdge      int
	PreviewConcurrency int

	Notifier Notifier

	// OnProcessComplete receives the decoded response of every successful
	// submission, after the queue has been cleared.
	OnProcessComplete func(resp *models.ProcessResponse)

	// OnEvent observes state changes. It may run with internal locks held
	// and must not call back into the Uploader.
	OnEvent func(Event)

	Now func() time.Time
}

// Uploader is one journal upload widget. Its methods are safe for
// concurrent use; mutations are serialised by a single lock.
type Uploader struct {
	mu        sync.Mutex
	opts      Options
	queue     *upload.Queue
	previews  *preview.Renderer
	ctrl      *submit.Controller
	presenter *results.Presenter
	history   []models.ProcessedFile

	noteMu        sync.Mutex
	notifications []models.Notification
}

// New creates an Uploader. It fails when the limits are invalid.
func New(opts Options) (*Uploader, error) {
	if opts.MaxFiles == 0 {
		opts.MaxFiles = models.DefaultMaxFiles
	}
	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = models.DefaultMaxSizeMB
	}
	if len(opts.AllowedTypes) == 0 {
		opts.AllowedTypes = models.DefaultAllowedTypes
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cfg, err := models.NewValidationConfig(opts.MaxFiles, opts.AllowedTypes, opts.MaxSizeMB)
	if err != nil {
		return nil, fmt.Errorf("invalid uploader config: %w", err)
	}

	u := &Uploader{
		opts:  opts,
		queue: upload.NewQueue(cfg),
		previews: preview.NewRenderer(preview.Options{
			ThumbnailEdge: opts.ThumbnailEdge,
			Concurrency:   opts.PreviewConcurrency,
		}),
	}
	u.ctrl = submit.NewController(submit.Options{
		Endpoint:   opts.Endpoint,
		HTTPClient: opts.HTTPClient,
		Now:        opts.Now,
		OnStateChange: func(_, to submit.State) {
			u.emit(Event{Type: EventState, State: to})
		},
	})
	return u, nil
}

// Config returns the validation limits in force.
func (u *Uploader) Config() models.ValidationConfig {
	return u.queue.Config()
}

// HandleFiles offers files to the queue. Rejections are notified and skipped;
// accepted files start loading their previews. Sources of files that were not
// accepted are released.
func (u *Uploader) HandleFiles(files []models.SourceFile) upload.AddResult {
	if len(files) == 0 {
		return upload.AddResult{}
	}

	u.mu.Lock()
	if u.ctrl.State() != submit.StateIdle {
		u.mu.Unlock()
		releaseAll(files)
		u.notifyError(ErrBusy)
		return upload.AddResult{Rejected: []*models.WidgetError{ErrBusy}}
	}
	res := u.queue.Add(files)
	for _, f := range res.Accepted {
		u.previews.Start(f, u.previewDone)
	}
	u.mu.Unlock()

	if len(res.Accepted) == 0 {
		releaseAll(files)
	} else {
		for _, f := range files {
			if validate.File(f, u.Config()) != nil {
				release(f.Source)
			}
		}
	}

	for _, werr := range res.Rejected {
		u.notifyError(werr)
	}
	if len(res.Accepted) > 0 {
		slog.Debug("files queued", "accepted", len(res.Accepted), "rejected", len(res.Rejected))
		u.emit(Event{Type: EventQueue, Queue: u.queue.Snapshot()})
	}
	return res
}

func (u *Uploader) previewDone(id, dataURL string, err error) {
	if !u.queue.SetPreview(id, dataURL, err) {
		return
	}
	f, ok := u.queue.Get(id)
	if !ok {
		return
	}
	if err != nil {
		u.notifyError(&models.WidgetError{
			Kind:    models.ErrPreviewLoadFailure,
			File:    f.Name,
			Message: fmt.Sprintf("Could not load preview for %s", f.Name),
			Cause:   err,
		})
	}
	u.emit(Event{Type: EventPreview, File: &f})
}

// RemoveFile drops the entry with the given id. Unknown ids are ignored.
func (u *Uploader) RemoveFile(id string) error {
	u.mu.Lock()
	if u.ctrl.State() != submit.StateIdle {
		u.mu.Unlock()
		u.notifyError(ErrBusy)
		return ErrBusy
	}
	f, ok := u.queue.Get(id)
	removed := ok && u.queue.Remove(id)
	u.mu.Unlock()

	if !removed {
		return nil
	}
	release(f.Source)
	u.emit(Event{Type: EventQueue, Queue: u.queue.Snapshot()})
	return nil
}

// ProcessUploads submits the queue. It returns submit.ErrEmptyQueue or
// submit.ErrSubmissionInProgress without side effects, and a
// *models.WidgetError when the request fails. On failure the queue is kept.
func (u *Uploader) ProcessUploads(ctx context.Context) (*models.ProcessResponse, error) {
	u.mu.Lock()
	files := u.queue.Snapshot()
	err := u.ctrl.Begin(files)
	u.mu.Unlock()
	if err != nil {
		if errors.Is(err, submit.ErrSubmissionInProgress) {
			u.notifyError(ErrBusy)
		}
		return nil, err
	}

	ctx = logger.WithSubmissionID(ctx, uuid.NewString())
	resp, err := u.ctrl.Run(ctx, files, u.settle)
	if err != nil {
		return nil, err
	}
	if u.opts.OnProcessComplete != nil {
		u.opts.OnProcessComplete(resp)
	}
	return resp, nil
}

func (u *Uploader) settle(resp *models.ProcessResponse, werr *models.WidgetError) {
	if werr != nil {
		u.notify(models.Notification{
			Level:   models.NotificationError,
			Message: "Upload failed: " + werr.Message,
			Kind:    werr.Kind,
		})
		return
	}

	now := u.opts.Now().UnixMilli()
	u.mu.Lock()
	submitted := u.queue.Clear()
	for _, f := range submitted {
		u.history = append(u.history, models.ProcessedFile{
			ID:          f.ID,
			Name:        f.Name,
			MIMEType:    f.MIMEType,
			Size:        f.Size,
			ProcessedAt: now,
		})
	}
	u.presenter = results.New(resp)
	u.mu.Unlock()

	for _, f := range submitted {
		release(f.Source)
	}

	u.emit(Event{Type: EventQueue, Queue: []models.PendingFile{}})
	u.emit(Event{Type: EventResults, Response: resp.Raw})
	u.notify(models.Notification{
		Level:   models.NotificationSuccess,
		Message: fmt.Sprintf("Successfully processed %d journal pages!", resp.ProcessedPages),
	})
}

// Queue returns the pending entries in display order.
func (u *Uploader) Queue() []models.PendingFile {
	return u.queue.Snapshot()
}

// CanSubmit reports whether the submit action is enabled.
func (u *Uploader) CanSubmit() bool {
	return u.ctrl.State() == submit.StateIdle && u.queue.CanSubmit()
}

// State returns the submission state.
func (u *Uploader) State() submit.State {
	return u.ctrl.State()
}

// Endpoint returns the processing endpoint URL.
func (u *Uploader) Endpoint() string {
	return u.ctrl.Endpoint()
}

// Results returns the presenter of the latest successful submission, or nil.
func (u *Uploader) Results() *results.Presenter {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.presenter
}

// History returns the files processed so far, oldest first.
func (u *Uploader) History() []models.ProcessedFile {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]models.ProcessedFile, len(u.history))
	copy(out, u.history)
	return out
}

// Notifications returns the most recent notifications, oldest first.
func (u *Uploader) Notifications() []models.Notification {
	u.noteMu.Lock()
	defer u.noteMu.Unlock()
	out := make([]models.Notification, len(u.notifications))
	copy(out, u.notifications)
	return out
}

// WaitPreviews blocks until every started preview has loaded or failed.
func (u *Uploader) WaitPreviews() {
	u.previews.Wait()
}

// Close cancels pending preview loads.
func (u *Uploader) Close() {
	u.previews.Close()
}

func (u *Uploader) notifyError(werr *models.WidgetError) {
	u.notify(models.Notification{
		Level:   models.NotificationError,
		Message: werr.Message,
		Kind:    werr.Kind,
	})
}

func (u *Uploader) notify(n models.Notification) {
	if n.At.IsZero() {
		n.At = u.opts.Now()
	}
	u.noteMu.Lock()
	u.notifications = append(u.notifications, n)
	if len(u.notifications) > maxNotifications {
		u.notifications = u.notifications[len(u.notifications)-maxNotifications:]
	}
	u.noteMu.Unlock()

	u.opts.Notifier.Notify(n)
	u.emit(Event{Type: EventNotification, Notification: &n})
}

func (u *Uploader) emit(ev Event) {
	if u.opts.OnEvent != nil {
		u.opts.OnEvent(ev)
	}
}

func release(src models.Source) {
	r, ok := src.(models.Releaser)
	if !ok {
		return
	}
	if err := r.Release(); err != nil {
		slog.Warn("releasing file source", "error", err)
	}
}

func releaseAll(files []models.SourceFile) {
	for _, f := range files {
		release(f.Source)
	}
}
