package models

import (
	"fmt"
	"sort"
)

// Defaults used by the original journal uploader.
const (
	DefaultMaxFiles  = 20
	DefaultMaxSizeMB = 10
)

// DefaultAllowedTypes are the image types accepted when none are configured.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/heic"}

// ValidationConfig holds the upload limits of one widget instance.
// It is immutable once constructed.
type ValidationConfig struct {
	maxFiles     int
	allowedTypes map[string]struct{}
	maxSizeMB    float64
	maxSizeBytes int64
}

// NewValidationConfig builds a ValidationConfig. maxSizeMB is converted with
// 1MB = 1024*1024 bytes.
func NewValidationConfig(maxFiles int, allowedTypes []string, maxSizeMB float64) (ValidationConfig, error) {
	if maxFiles <= 0 {
		return ValidationConfig{}, fmt.Errorf("maxFiles must be positive, got %d", maxFiles)
	}
	if maxSizeMB <= 0 {
		return ValidationConfig{}, fmt.Errorf("maxSizeMB must be positive, got %v", maxSizeMB)
	}
	if len(allowedTypes) == 0 {
		return ValidationConfig{}, fmt.Errorf("allowedTypes must not be empty")
	}

	types := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		types[t] = struct{}{}
	}

	return ValidationConfig{
		maxFiles:     maxFiles,
		allowedTypes: types,
		maxSizeMB:    maxSizeMB,
		maxSizeBytes: int64(maxSizeMB * 1024 * 1024),
	}, nil
}

// DefaultValidationConfig returns the limits of the original widget.
func DefaultValidationConfig() ValidationConfig {
	cfg, _ := NewValidationConfig(DefaultMaxFiles, DefaultAllowedTypes, DefaultMaxSizeMB)
	return cfg
}

// MaxFiles is the maximum queue length.
func (c ValidationConfig) MaxFiles() int { return c.maxFiles }

// MaxSizeBytes is the largest accepted file size.
func (c ValidationConfig) MaxSizeBytes() int64 { return c.maxSizeBytes }

// MaxSizeMB is the configured size limit as given by the caller.
func (c ValidationConfig) MaxSizeMB() float64 { return c.maxSizeMB }

// Allows reports whether mimeType is an accepted type.
func (c ValidationConfig) Allows(mimeType string) bool {
	_, ok := c.allowedTypes[mimeType]
	return ok
}

// AllowedTypes returns the accepted types, sorted.
func (c ValidationConfig) AllowedTypes() []string {
	out := make([]string, 0, len(c.allowedTypes))
	for t := range c.allowedTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
