package upload

import (
	"sync"

	"github.com/google/uuid"
	"github.com/journal-ai/uploader/internal/models"
	"github.com/journal-ai/uploader/internal/validate"
)

// AddResult reports the outcome of one Add call.
type AddResult struct {
	Accepted []models.PendingFile
	Rejected []*models.WidgetError
}

// Queue is the ordered list of files waiting for submission.
// Every mutation holds the lock for its whole input-to-state mapping, so a
// Remove issued after Add returns always sees the added entries.
type Queue struct {
	mu      sync.RWMutex
	cfg     models.ValidationConfig
	entries []*models.PendingFile
	newID   func() string
}

// NewQueue creates an empty queue enforcing cfg.
func NewQueue(cfg models.ValidationConfig) *Queue {
	return &Queue{
		cfg:   cfg,
		newID: func() string { return uuid.New().String() },
	}
}

// Config returns the limits the queue enforces.
func (q *Queue) Config() models.ValidationConfig {
	return q.cfg
}

// Add validates files and appends the accepted ones in input order.
// Individually rejected files are skipped; if the survivors would push the
// queue past MaxFiles nothing is added.
func (q *Queue) Add(files []models.SourceFile) AddResult {
	if len(files) == 0 {
		return AddResult{}
	}

	accepted, rejected := validate.Split(files, q.cfg)

	q.mu.Lock()
	defer q.mu.Unlock()

	if werr := validate.Batch(len(q.entries), len(accepted), q.cfg); werr != nil {
		return AddResult{Rejected: append(rejected, werr)}
	}

	result := AddResult{Rejected: rejected}
	for _, f := range accepted {
		entry := &models.PendingFile{
			ID:           q.uniqueID(),
			Name:         f.Name,
			MIMEType:     f.MIMEType,
			Size:         f.Size,
			PreviewState: models.PreviewLoading,
			Source:       f.Source,
		}
		q.entries = append(q.entries, entry)
		result.Accepted = append(result.Accepted, *entry)
	}
	return result
}

// uniqueID must be called with the lock held.
func (q *Queue) uniqueID() string {
	for {
		id := q.newID()
		if q.indexOf(id) < 0 {
			return id
		}
	}
}

// Remove deletes the entry with the given id. Removing an unknown id is a no-op.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(id)
	if i < 0 {
		return false
	}
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return true
}

// Clear empties the queue and returns the entries it held.
func (q *Queue) Clear() []models.PendingFile {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.PendingFile, len(q.entries))
	for i, e := range q.entries {
		out[i] = *e
	}
	q.entries = nil
	return out
}

// SetPreview stores the result of an asynchronous preview load.
// A result for an entry that was removed in the meantime is discarded.
func (q *Queue) SetPreview(id, dataURL string, loadErr error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(id)
	if i < 0 {
		return false
	}
	if loadErr != nil {
		q.entries[i].PreviewState = models.PreviewFailed
		q.entries[i].PreviewDataURL = ""
		return true
	}
	q.entries[i].PreviewState = models.PreviewReady
	q.entries[i].PreviewDataURL = dataURL
	return true
}

// Snapshot returns a copy of the entries in display order.
func (q *Queue) Snapshot() []models.PendingFile {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]models.PendingFile, len(q.entries))
	for i, e := range q.entries {
		out[i] = *e
	}
	return out
}

// Get retrieves an entry by id.
func (q *Queue) Get(id string) (models.PendingFile, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	i := q.indexOf(id)
	if i < 0 {
		return models.PendingFile{}, false
	}
	return *q.entries[i], true
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// CanSubmit reports whether the queue holds anything to submit.
func (q *Queue) CanSubmit() bool {
	return q.Len() > 0
}

func (q *Queue) indexOf(id string) int {
	for i, e := range q.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
