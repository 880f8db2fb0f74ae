package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestInit_JSONWithContext(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithSubmissionID(ctx, "sub-9")
	Debug(ctx, "queued", "files", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "queued", line["msg"])
	assert.Equal(t, "req-123", line["request_id"])
	assert.Equal(t, "sub-9", line["submission_id"])
	assert.Equal(t, float64(2), line["files"])
}

func TestInit_LevelFilters(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "text", Output: &buf})

	ctx := context.Background()
	Info(ctx, "hidden")
	assert.Empty(t, buf.String())

	Warn(ctx, "shown")
	Error(ctx, "also shown")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), `msg="also shown"`)
}

func TestWithContextEmpty(t *testing.T) {
	assert.NotNil(t, WithContext(context.Background()))
}
