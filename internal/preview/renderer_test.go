package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/journal-ai/uploader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// withDimensions rewrites the IHDR chunk of a PNG so it claims w x h pixels.
func withDimensions(t *testing.T, raw []byte, w, h uint32) []byte {
	t.Helper()
	require.Equal(t, "IHDR", string(raw[12:16]))
	out := append([]byte(nil), raw...)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func decodeDataURL(t *testing.T, url string) (string, []byte) {
	t.Helper()
	require.True(t, strings.HasPrefix(url, "data:"))
	meta, payload, ok := strings.Cut(strings.TrimPrefix(url, "data:"), ";base64,")
	require.True(t, ok)
	data, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	return meta, data
}

func TestRender_RawBytes(t *testing.T) {
	r := NewRenderer(Options{})
	defer r.Close()

	f := models.PendingFile{ID: "1", Name: "a.heic", MIMEType: "image/heic", Source: models.BytesSource("not really heic")}
	url, err := r.Render(context.Background(), f)
	require.NoError(t, err)

	mt, data := decodeDataURL(t, url)
	assert.Equal(t, "image/heic", mt)
	assert.Equal(t, "not really heic", string(data))
}

func TestRender_Thumbnail(t *testing.T) {
	r := NewRenderer(Options{ThumbnailEdge: 16})
	defer r.Close()

	t.Run("scales large png", func(t *testing.T) {
		f := models.PendingFile{ID: "1", Name: "a.png", MIMEType: "image/png", Source: models.BytesSource(encodePNG(t, 64, 32))}
		url, err := r.Render(context.Background(), f)
		require.NoError(t, err)

		mt, data := decodeDataURL(t, url)
		assert.Equal(t, "image/png", mt)
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 16, cfg.Width)
		assert.Equal(t, 8, cfg.Height)
	})

	t.Run("keeps small png", func(t *testing.T) {
		raw := encodePNG(t, 8, 8)
		f := models.PendingFile{ID: "2", Name: "b.png", MIMEType: "image/png", Source: models.BytesSource(raw)}
		url, err := r.Render(context.Background(), f)
		require.NoError(t, err)
		_, data := decodeDataURL(t, url)
		assert.Equal(t, raw, data)
	})

	t.Run("undecodable falls back to raw", func(t *testing.T) {
		f := models.PendingFile{ID: "3", Name: "c.png", MIMEType: "image/png", Source: models.BytesSource("garbage")}
		url, err := r.Render(context.Background(), f)
		require.NoError(t, err)
		_, data := decodeDataURL(t, url)
		assert.Equal(t, "garbage", string(data))
	})

	t.Run("undecodable allowed type keeps its mime type", func(t *testing.T) {
		f := models.PendingFile{ID: "4", Name: "d.heic", MIMEType: "image/heic", Source: models.BytesSource("heic bytes")}
		url, err := r.Render(context.Background(), f)
		require.NoError(t, err)
		mt, data := decodeDataURL(t, url)
		assert.Equal(t, "image/heic", mt)
		assert.Equal(t, "heic bytes", string(data))
	})
}

func TestRender_PixelBudget(t *testing.T) {
	t.Run("huge dimensions in a tiny file are not decoded", func(t *testing.T) {
		r := NewRenderer(Options{ThumbnailEdge: 320})
		defer r.Close()

		raw := withDimensions(t, encodePNG(t, 1, 1), 20000, 20000)
		cfg, err := png.DecodeConfig(bytes.NewReader(raw))
		require.NoError(t, err)
		require.Equal(t, 20000, cfg.Width)

		f := models.PendingFile{ID: "1", Name: "big.png", MIMEType: "image/png", Source: models.BytesSource(raw)}
		url, err := r.Render(context.Background(), f)
		require.NoError(t, err)
		mt, data := decodeDataURL(t, url)
		assert.Equal(t, "image/png", mt)
		assert.Equal(t, raw, data)
	})

	t.Run("configured budget", func(t *testing.T) {
		r := NewRenderer(Options{ThumbnailEdge: 16, MaxPixels: 100})
		defer r.Close()

		raw := encodePNG(t, 64, 32)
		f := models.PendingFile{ID: "2", Name: "a.png", MIMEType: "image/png", Source: models.BytesSource(raw)}
		url, err := r.Render(context.Background(), f)
		require.NoError(t, err)
		_, data := decodeDataURL(t, url)
		assert.Equal(t, raw, data)
	})
}

func TestRender_Errors(t *testing.T) {
	r := NewRenderer(Options{})
	defer r.Close()

	_, err := r.Render(context.Background(), models.PendingFile{Name: "none"})
	assert.Error(t, err)

	failing := models.OpenFunc(func() (io.ReadCloser, error) { return nil, errors.New("permission denied") })
	_, err = r.Render(context.Background(), models.PendingFile{Name: "x", Source: failing})
	assert.ErrorContains(t, err, "permission denied")
}

func TestStart_IndependentLoads(t *testing.T) {
	r := NewRenderer(Options{Concurrency: 2})
	defer r.Close()

	failing := models.OpenFunc(func() (io.ReadCloser, error) { return nil, errors.New("unreadable") })
	files := []models.PendingFile{
		{ID: "ok-1", Name: "1.png", MIMEType: "image/png", Source: models.BytesSource("one")},
		{ID: "bad", Name: "2.png", MIMEType: "image/png", Source: failing},
		{ID: "ok-2", Name: "3.png", MIMEType: "image/png", Source: models.BytesSource("three")},
	}

	var mu sync.Mutex
	results := map[string]error{}
	urls := map[string]string{}
	for _, f := range files {
		r.Start(f, func(id, url string, err error) {
			mu.Lock()
			defer mu.Unlock()
			results[id] = err
			urls[id] = url
		})
	}
	r.Wait()

	require.Len(t, results, 3)
	assert.NoError(t, results["ok-1"])
	assert.NoError(t, results["ok-2"])
	assert.Error(t, results["bad"])
	assert.Equal(t, DataURL("image/png", []byte("three")), urls["ok-2"])
}

func TestStart_AfterClose(t *testing.T) {
	r := NewRenderer(Options{})
	r.Close()

	got := make(chan error, 1)
	r.Start(models.PendingFile{ID: "1", Source: models.BytesSource("x")}, func(_, _ string, err error) {
		got <- err
	})

	select {
	case err := <-got:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("done was not called")
	}
}

func TestStart_ConcurrentWithClose(t *testing.T) {
	r := NewRenderer(Options{Concurrency: 2})

	var wg sync.WaitGroup
	var mu sync.Mutex
	calls := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Start(models.PendingFile{ID: "x", Source: models.BytesSource("x")}, func(_, _ string, _ error) {
				mu.Lock()
				calls++
				mu.Unlock()
			})
		}()
	}
	r.Close()
	wg.Wait()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 20
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,aGk=", DataURL("image/png", []byte("hi")))
	assert.Equal(t, "data:application/octet-stream;base64,", DataURL("", nil))
}
