package validate

import (
	"testing"

	"github.com/journal-ai/uploader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngConfig(t *testing.T, maxFiles int, maxSizeMB float64) models.ValidationConfig {
	t.Helper()
	cfg, err := models.NewValidationConfig(maxFiles, []string{"image/png"}, maxSizeMB)
	require.NoError(t, err)
	return cfg
}

func TestFile(t *testing.T) {
	cfg := pngConfig(t, 2, 1)

	tests := []struct {
		name     string
		file     models.SourceFile
		wantKind models.ErrorKind
		wantMsg  string
	}{
		{
			name: "accepted png",
			file: models.SourceFile{Name: "a.png", MIMEType: "image/png", Size: 512 * 1024},
		},
		{
			name: "exactly at limit",
			file: models.SourceFile{Name: "edge.png", MIMEType: "image/png", Size: 1024 * 1024},
		},
		{
			name:     "one byte over limit",
			file:     models.SourceFile{Name: "big.png", MIMEType: "image/png", Size: 1024*1024 + 1},
			wantKind: models.ErrTooLarge,
			wantMsg:  "big.png exceeds the maximum file size of 1MB",
		},
		{
			name:     "unsupported type",
			file:     models.SourceFile{Name: "notes.pdf", MIMEType: "application/pdf", Size: 10},
			wantKind: models.ErrUnsupportedType,
			wantMsg:  "notes.pdf is not a supported image type",
		},
		{
			name:     "type checked before size",
			file:     models.SourceFile{Name: "huge.gif", MIMEType: "image/gif", Size: 50 * 1024 * 1024},
			wantKind: models.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			werr := File(tt.file, cfg)
			if tt.wantKind == "" {
				assert.Nil(t, werr)
				return
			}
			require.NotNil(t, werr)
			assert.Equal(t, tt.wantKind, werr.Kind)
			assert.Equal(t, tt.file.Name, werr.File)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, werr.Message)
			}
		})
	}
}

func TestFile_RejectsIffTypeOrSize(t *testing.T) {
	cfg := pngConfig(t, 5, 2)
	types := []string{"image/png", "image/jpeg", ""}
	sizes := []int64{0, 1, cfg.MaxSizeBytes() - 1, cfg.MaxSizeBytes(), cfg.MaxSizeBytes() + 1}

	for _, mt := range types {
		for _, size := range sizes {
			f := models.SourceFile{Name: "f", MIMEType: mt, Size: size}
			shouldReject := !cfg.Allows(mt) || size > cfg.MaxSizeBytes()
			assert.Equal(t, shouldReject, File(f, cfg) != nil, "type=%q size=%d", mt, size)
		}
	}
}

func TestBatch(t *testing.T) {
	cfg := pngConfig(t, 2, 1)

	assert.Nil(t, Batch(0, 2, cfg))
	assert.Nil(t, Batch(1, 1, cfg))
	assert.Nil(t, Batch(2, 0, cfg))

	werr := Batch(2, 1, cfg)
	require.NotNil(t, werr)
	assert.Equal(t, models.ErrQuotaExceeded, werr.Kind)
	assert.Equal(t, "You can only upload up to 2 files at once", werr.Message)
}

func TestSplit(t *testing.T) {
	cfg := pngConfig(t, 2, 1)
	files := []models.SourceFile{
		{Name: "small.png", MIMEType: "image/png", Size: 512 * 1024},
		{Name: "large.png", MIMEType: "image/png", Size: 2 * 1024 * 1024},
		{Name: "other.png", MIMEType: "image/png", Size: 10},
	}

	accepted, rejected := Split(files, cfg)
	require.Len(t, accepted, 2)
	assert.Equal(t, "small.png", accepted[0].Name)
	assert.Equal(t, "other.png", accepted[1].Name)
	require.Len(t, rejected, 1)
	assert.Equal(t, models.ErrTooLarge, rejected[0].Kind)
}

func TestFormatMB(t *testing.T) {
	assert.Equal(t, "10", formatMB(10))
	assert.Equal(t, "0.5", formatMB(0.5))
}
