// Package validate holds the pure upload predicates of the widget.
package validate

import (
	"fmt"
	"strconv"

	"github.com/journal-ai/uploader/internal/models"
)

// File checks a single file against the type and size limits.
// It returns nil when the file is accepted.
func File(f models.SourceFile, cfg models.ValidationConfig) *models.WidgetError {
	if !cfg.Allows(f.MIMEType) {
		return &models.WidgetError{
			Kind:    models.ErrUnsupportedType,
			File:    f.Name,
			Message: fmt.Sprintf("%s is not a supported image type", f.Name),
		}
	}
	if f.Size > cfg.MaxSizeBytes() {
		return &models.WidgetError{
			Kind:    models.ErrTooLarge,
			File:    f.Name,
			Message: fmt.Sprintf("%s exceeds the maximum file size of %sMB", f.Name, formatMB(cfg.MaxSizeMB())),
		}
	}
	return nil
}

// Batch applies the all-or-nothing quota rule: if queued+accepted exceeds
// MaxFiles the whole batch is rejected.
func Batch(queued, accepted int, cfg models.ValidationConfig) *models.WidgetError {
	if queued+accepted > cfg.MaxFiles() {
		return &models.WidgetError{
			Kind:    models.ErrQuotaExceeded,
			Message: fmt.Sprintf("You can only upload up to %d files at once", cfg.MaxFiles()),
		}
	}
	return nil
}

// Split validates every file individually and returns the accepted ones in
// input order together with one rejection per refused file.
func Split(files []models.SourceFile, cfg models.ValidationConfig) ([]models.SourceFile, []*models.WidgetError) {
	var accepted []models.SourceFile
	var rejected []*models.WidgetError
	for _, f := range files {
		if werr := File(f, cfg); werr != nil {
			rejected = append(rejected, werr)
			continue
		}
		accepted = append(accepted, f)
	}
	return accepted, rejected
}

func formatMB(mb float64) string {
	return strconv.FormatFloat(mb, 'f', -1, 64)
}
