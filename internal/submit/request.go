package submit

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/journal-ai/uploader/internal/models"
)

// Multipart field names understood by the processing endpoint.
const (
	PageFieldPrefix = "journal_page_"
	PageCountField  = "page_count"
	TimestampField  = "timestamp"
)

// TimestampLayout matches the ISO-8601 form browsers produce (UTC, milliseconds).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// PageField returns the multipart field name of the i-th queued file.
func PageField(i int) string {
	return PageFieldPrefix + strconv.Itoa(i)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// NewRequest builds the multipart POST for files. The body is streamed from
// the sources as the transport reads it; timestamp is captured by the caller.
func NewRequest(ctx context.Context, endpoint string, files []models.PendingFile, timestamp time.Time) (*http.Request, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeBody(mw, files, timestamp))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func writeBody(mw *multipart.Writer, files []models.PendingFile, timestamp time.Time) error {
	for i, f := range files {
		if err := writeFilePart(mw, PageField(i), f); err != nil {
			return err
		}
	}
	if err := mw.WriteField(PageCountField, strconv.Itoa(len(files))); err != nil {
		return err
	}
	if err := mw.WriteField(TimestampField, timestamp.UTC().Format(TimestampLayout)); err != nil {
		return err
	}
	return mw.Close()
}

func writeFilePart(mw *multipart.Writer, field string, f models.PendingFile) error {
	if f.Source == nil {
		return fmt.Errorf("no source for %s", f.Name)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name)))
	contentType := f.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	rc, err := f.Source.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return nil
}
