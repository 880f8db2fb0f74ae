package upload

import (
	"errors"
	"fmt"
	"testing"

	"github.com/journal-ai/uploader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mb = 1024 * 1024

func newTestQueue(t *testing.T, maxFiles int, maxSizeMB float64) *Queue {
	t.Helper()
	cfg, err := models.NewValidationConfig(maxFiles, []string{"image/png"}, maxSizeMB)
	require.NoError(t, err)
	return NewQueue(cfg)
}

func png(name string, size int64) models.SourceFile {
	return models.SourceFile{
		Name:     name,
		MIMEType: "image/png",
		Size:     size,
		Source:   models.BytesSource("data"),
	}
}

func TestQueue_Add(t *testing.T) {
	t.Run("skips oversized file and keeps siblings", func(t *testing.T) {
		q := newTestQueue(t, 2, 1)

		res := q.Add([]models.SourceFile{png("small.png", mb/2), png("large.png", 2*mb)})

		require.Len(t, res.Accepted, 1)
		assert.Equal(t, "small.png", res.Accepted[0].Name)
		assert.Equal(t, models.PreviewLoading, res.Accepted[0].PreviewState)
		require.Len(t, res.Rejected, 1)
		assert.Equal(t, models.ErrTooLarge, res.Rejected[0].Kind)
		assert.Equal(t, 1, q.Len())
		assert.True(t, q.CanSubmit())
	})

	t.Run("rejects the whole batch over quota", func(t *testing.T) {
		q := newTestQueue(t, 2, 1)
		q.Add([]models.SourceFile{png("a.png", 10), png("b.png", 10)})
		before := q.Snapshot()

		res := q.Add([]models.SourceFile{png("c.png", 10)})

		assert.Empty(t, res.Accepted)
		require.Len(t, res.Rejected, 1)
		assert.Equal(t, models.ErrQuotaExceeded, res.Rejected[0].Kind)
		assert.Equal(t, before, q.Snapshot())
	})

	t.Run("quota counts only individually accepted files", func(t *testing.T) {
		q := newTestQueue(t, 2, 1)
		q.Add([]models.SourceFile{png("a.png", 10)})

		res := q.Add([]models.SourceFile{png("b.png", 10), png("huge.png", 5*mb)})

		require.Len(t, res.Accepted, 1)
		assert.Equal(t, 2, q.Len())
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		q := newTestQueue(t, 2, 1)
		res := q.Add(nil)
		assert.Empty(t, res.Accepted)
		assert.Empty(t, res.Rejected)
		assert.False(t, q.CanSubmit())
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		q := newTestQueue(t, 10, 1)
		for i := 0; i < 5; i++ {
			q.Add([]models.SourceFile{png(fmt.Sprintf("p%d.png", i), 10)})
		}
		snap := q.Snapshot()
		require.Len(t, snap, 5)
		for i, e := range snap {
			assert.Equal(t, fmt.Sprintf("p%d.png", i), e.Name)
		}
	})
}

func TestQueue_UniqueIDs(t *testing.T) {
	q := newTestQueue(t, 3, 1)
	ids := []string{"dup", "dup", "dup", "x", "y"}
	q.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	q.Add([]models.SourceFile{png("a.png", 1), png("b.png", 1), png("c.png", 1)})

	seen := map[string]bool{}
	for _, e := range q.Snapshot() {
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
	assert.Len(t, seen, 3)
}

func TestQueue_Remove(t *testing.T) {
	q := newTestQueue(t, 3, 1)
	res := q.Add([]models.SourceFile{png("a.png", 1), png("b.png", 1)})
	id := res.Accepted[0].ID

	assert.True(t, q.Remove(id))
	afterOnce := q.Snapshot()
	assert.False(t, q.Remove(id))
	assert.Equal(t, afterOnce, q.Snapshot())

	require.Len(t, afterOnce, 1)
	assert.Equal(t, "b.png", afterOnce[0].Name)

	q.Remove(afterOnce[0].ID)
	assert.False(t, q.CanSubmit())
	assert.False(t, q.Remove("missing"))
}

func TestQueue_Clear(t *testing.T) {
	q := newTestQueue(t, 3, 1)
	q.Add([]models.SourceFile{png("a.png", 1), png("b.png", 1)})

	cleared := q.Clear()

	assert.Len(t, cleared, 2)
	assert.Equal(t, 0, q.Len())
	assert.False(t, q.CanSubmit())
}

func TestQueue_SetPreview(t *testing.T) {
	q := newTestQueue(t, 3, 1)
	res := q.Add([]models.SourceFile{png("a.png", 1), png("b.png", 1)})
	a, b := res.Accepted[0].ID, res.Accepted[1].ID

	assert.True(t, q.SetPreview(b, "data:image/png;base64,Yg==", nil))
	assert.True(t, q.SetPreview(a, "", errors.New("boom")))

	got, ok := q.Get(a)
	require.True(t, ok)
	assert.Equal(t, models.PreviewFailed, got.PreviewState)
	got, _ = q.Get(b)
	assert.Equal(t, models.PreviewReady, got.PreviewState)
	assert.Equal(t, "data:image/png;base64,Yg==", got.PreviewDataURL)

	t.Run("stale result does not resurrect removed entry", func(t *testing.T) {
		q.Remove(a)
		assert.False(t, q.SetPreview(a, "data:image/png;base64,YQ==", nil))
		_, ok := q.Get(a)
		assert.False(t, ok)
		assert.Equal(t, 1, q.Len())
	})
}
