// handlers_queue.go - Upload queue handlers
package api

import (
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/journal-ai/uploader/internal/models"
	"github.com/journal-ai/uploader/internal/storage"
	"github.com/journal-ai/uploader/pkg/logger"
	"github.com/labstack/echo/v4"
)

// filesField is the multipart field carrying the offered files.
const filesField = "files"

// QueueHandlerImpl implements the QueueHandler interface
type QueueHandlerImpl struct {
	uploader Uploader
	store    storage.Store
}

// NewQueueHandler creates a new queue handler instance
func NewQueueHandler(uploader Uploader, store storage.Store) QueueHandler {
	return &QueueHandlerImpl{
		uploader: uploader,
		store:    store,
	}
}

// HandleListQueue returns the pending files and the limits in force
func (h *QueueHandlerImpl) HandleListQueue(c echo.Context) error {
	return c.JSON(http.StatusOK, h.queueState())
}

// HandleAddFiles stages multipart files and offers them to the queue
func (h *QueueHandlerImpl) HandleAddFiles(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("expected multipart form", err)
	}
	defer form.RemoveAll()
	headers := form.File[filesField]
	if len(headers) == 0 {
		return NewValidationError(filesField)
	}

	sources := make([]models.SourceFile, 0, len(headers))
	for _, fh := range headers {
		info, err := h.stage(fh)
		if err != nil {
			for _, src := range sources {
				release(src)
			}
			return NewInternalError("failed to stage file", err)
		}
		sources = append(sources, storage.SourceFile(h.store, info))
	}

	res := h.uploader.HandleFiles(sources)
	if len(res.Accepted) == 0 && len(res.Rejected) == 1 && res.Rejected[0].Kind == models.ErrBusy {
		return fromWidgetError(res.Rejected[0])
	}

	logger.Info(c.Request().Context(), "files offered", "accepted", len(res.Accepted), "rejected", len(res.Rejected))

	resp := addFilesResponse{
		Accepted: res.Accepted,
		Rejected: make([]rejection, 0, len(res.Rejected)),
		Queue:    h.queueState(),
	}
	if resp.Accepted == nil {
		resp.Accepted = []models.PendingFile{}
	}
	for _, werr := range res.Rejected {
		resp.Rejected = append(resp.Rejected, rejection{Kind: werr.Kind, File: werr.File, Message: werr.Message})
	}

	status := http.StatusCreated
	if len(res.Accepted) == 0 {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, resp)
}

// HandleRemoveFile removes a pending file. Unknown ids succeed too.
func (h *QueueHandlerImpl) HandleRemoveFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if err := h.uploader.RemoveFile(id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *QueueHandlerImpl) stage(fh *multipart.FileHeader) (*models.FileInfo, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return h.store.Save(fh.Filename, partType(fh), src)
}

func release(f models.SourceFile) {
	if r, ok := f.Source.(models.Releaser); ok {
		_ = r.Release()
	}
}

func (h *QueueHandlerImpl) queueState() queueResponse {
	cfg := h.uploader.Config()
	files := h.uploader.Queue()
	return queueResponse{
		Files:         files,
		CanSubmit:     h.uploader.CanSubmit(),
		MaxFiles:      cfg.MaxFiles(),
		MaxFileSizeMB: cfg.MaxSizeMB(),
		AllowedTypes:  cfg.AllowedTypes(),
	}
}

// partType prefers the browser-declared type and falls back to the extension.
func partType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get(echo.HeaderContentType); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && mt != echo.MIMEOctetStream {
			return mt
		}
	}
	return models.DetectMIMEType(fh.Filename, nil)
}

// Request/Response types

type queueResponse struct {
	Files         []models.PendingFile `json:"files"`
	CanSubmit     bool                 `json:"canSubmit"`
	MaxFiles      int                  `json:"maxFiles"`
	MaxFileSizeMB float64              `json:"maxFileSizeMB"`
	AllowedTypes  []string             `json:"allowedTypes"`
}

type rejection struct {
	Kind    models.ErrorKind `json:"kind"`
	File    string           `json:"file,omitempty"`
	Message string           `json:"message"`
}

type addFilesResponse struct {
	Accepted []models.PendingFile `json:"accepted"`
	Rejected []rejection          `json:"rejected"`
	Queue    queueResponse        `json:"queue"`
}
