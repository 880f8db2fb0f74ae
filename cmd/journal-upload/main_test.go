package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/journal-ai/uploader/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePage(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestRun(t *testing.T) {
	server := testutil.NewProcessingServer(t)
	server.Respond(http.StatusOK, `{"processed_pages":2,"results":{"texts":["first","second"],"insights":["Rest more"]}}`)

	dir := t.TempDir()
	a := writePage(t, dir, "a.png", []byte("a"))
	b := writePage(t, dir, "b.jpg", []byte("b"))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-endpoint", server.Endpoint(), a, b}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "Transcribed Journal Pages\n\nPage 1\nfirst\n\nPage 2\nsecond\n", stdout.String())
	assert.Contains(t, stderr.String(), "success: Successfully processed 2 journal pages!")

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Files, 2)
	assert.Equal(t, "image/jpeg", reqs[0].Files[1].ContentType)

	stdout.Reset()
	code = run(context.Background(), []string{"-endpoint", server.Endpoint(), "-tab", "insights", "-format", "markdown", a}, &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Equal(t, "## Insights\n\n- Rest more\n\n", stdout.String())
}

func TestRun_Failures(t *testing.T) {
	server := testutil.NewProcessingServer(t)
	server.Respond(http.StatusBadGateway, "upstream down")
	dir := t.TempDir()
	page := writePage(t, dir, "page.png", []byte("p"))
	notes := writePage(t, dir, "notes.txt", []byte("n"))

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{"no files", []string{}, 2, "usage: journal-upload"},
		{"bad tab", []string{"-tab", "summary", page}, 2, "unknown tab"},
		{"bad format", []string{"-format", "pdf", page}, 2, "unknown format"},
		{"missing file", []string{"-endpoint", server.Endpoint(), filepath.Join(dir, "nope.png")}, 1, "nope.png"},
		{"unsupported file", []string{"-endpoint", server.Endpoint(), notes}, 1, "notes.txt is not a supported image type"},
		{"server failure", []string{"-endpoint", server.Endpoint(), page}, 1, "Upload failed: server responded 502 Bad Gateway: upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr.String(), tt.wantStderr)
			assert.Empty(t, stdout.String())
		})
	}
}
