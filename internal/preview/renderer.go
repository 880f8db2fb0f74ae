// Package preview produces the data-URL thumbnails shown for queued files.
package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"sync"

	"github.com/journal-ai/uploader/internal/models"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultConcurrency bounds how many previews load at once.
	DefaultConcurrency = 4

	// DefaultMaxPixels bounds the decoded size of an image considered for
	// thumbnailing. Larger images keep their original bytes.
	DefaultMaxPixels = 40_000_000
)

// ErrClosed is delivered to loads started after Close.
var ErrClosed = errors.New("preview renderer closed")

// DoneFunc receives the outcome of one preview load.
type DoneFunc func(id, dataURL string, err error)

// Options configures a Renderer.
type Options struct {
	// ThumbnailEdge is the longest edge in pixels of a generated thumbnail.
	// Zero keeps the original bytes.
	ThumbnailEdge int
	Concurrency   int
	// MaxPixels caps width*height of images that are decoded for scaling.
	MaxPixels int
}

// Renderer loads previews asynchronously, one independent load per file.
type Renderer struct {
	opts   Options
	sem    *semaphore.Weighted
	group  errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewRenderer creates a Renderer. Close releases outstanding loads.
func NewRenderer(opts Options) *Renderer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Renderer{
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.Concurrency)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins loading the preview of f and returns immediately. done is
// called exactly once from another goroutine. A failing load never affects
// other loads. After Close, done receives ErrClosed.
func (r *Renderer) Start(f models.PendingFile, done DoneFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		go done(f.ID, "", ErrClosed)
		return
	}
	r.group.Go(func() error {
		if err := r.sem.Acquire(r.ctx, 1); err != nil {
			done(f.ID, "", fmt.Errorf("preview cancelled: %w", err))
			return nil
		}
		defer r.sem.Release(1)

		url, err := r.Render(r.ctx, f)
		if err != nil {
			slog.Debug("preview load failed", "file", f.Name, "id", f.ID, "error", err)
		}
		done(f.ID, url, err)
		return nil
	})
}

// Wait blocks until every started load has delivered its result.
func (r *Renderer) Wait() {
	_ = r.group.Wait()
}

// Close cancels loads that have not started yet and waits for running ones.
func (r *Renderer) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.Wait()
}

// Render reads f and encodes it as a data URL.
func (r *Renderer) Render(ctx context.Context, f models.PendingFile) (string, error) {
	if f.Source == nil {
		return "", fmt.Errorf("no source for %s", f.Name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rc, err := f.Source.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", f.Name, err)
	}

	mimeType := f.MIMEType
	if r.opts.ThumbnailEdge > 0 {
		if thumb, thumbType, ok := thumbnail(data, r.opts.ThumbnailEdge, r.opts.MaxPixels); ok {
			data, mimeType = thumb, thumbType
		}
	}

	return DataURL(mimeType, data), nil
}

// DataURL formats data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// thumbnail scales data down so its longest edge is at most edge pixels.
// ok is false when the image cannot be decoded, is already small enough or
// exceeds maxPixels, in which case callers keep the original bytes.
func thumbnail(data []byte, edge, maxPixels int) ([]byte, string, bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", false
	}
	w, h := cfg.Width, cfg.Height
	if w <= edge && h <= edge {
		return nil, "", false
	}
	if w <= 0 || h <= 0 || int64(w)*int64(h) > int64(maxPixels) {
		slog.Debug("image too large to thumbnail", "width", w, "height", h)
		return nil, "", false
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", false
	}
	b := src.Bounds()

	tw, th := edge, edge
	if w >= h {
		th = max(1, h*edge/w)
	} else {
		tw = max(1, w*edge/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, dst); err != nil {
			return nil, "", false
		}
		return buf.Bytes(), "image/png", true
	}
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return nil, "", false
	}
	return buf.Bytes(), "image/jpeg", true
}
