// Package config provides YAML-based configuration for the journal uploader.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/journal-ai/uploader/internal/models"
	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Uploader UploaderConfig `yaml:"uploader"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig contains HTTP host settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bind_address"`
	EnableCORS   bool   `yaml:"enable_cors"`
	AllowOrigins string `yaml:"allow_origins"`
	BodyLimit    string `yaml:"body_limit"`
	ReadTimeout  int    `yaml:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds"`
	IdleTimeout  int    `yaml:"idle_timeout_seconds"`
}

// UploaderConfig contains the widget limits and the processing endpoint
type UploaderConfig struct {
	// BaseURL is the origin a relative Endpoint is resolved against.
	BaseURL            string   `yaml:"base_url"`
	Endpoint           string   `yaml:"endpoint"`
	MaxFiles           int      `yaml:"max_files"`
	MaxFileSizeMB      float64  `yaml:"max_file_size_mb"`
	AllowedTypes       []string `yaml:"allowed_types"`
	ThumbnailEdge      int      `yaml:"thumbnail_edge"`
	PreviewConcurrency int      `yaml:"preview_concurrency"`
}

// StorageConfig contains staging settings for files received by the host
type StorageConfig struct {
	StagingDirectory string `yaml:"staging_directory"`
}

// LogConfig selects the slog level and handler
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			BodyLimit:    "256M",
			ReadTimeout:  30,
			WriteTimeout: 120,
			IdleTimeout:  120,
		},
		Uploader: UploaderConfig{
			BaseURL:            "http://localhost:5000",
			Endpoint:           "/api/journal/process",
			MaxFiles:           models.DefaultMaxFiles,
			MaxFileSizeMB:      models.DefaultMaxSizeMB,
			AllowedTypes:       append([]string(nil), models.DefaultAllowedTypes...),
			ThumbnailEdge:      320,
			PreviewConcurrency: 4,
		},
		Storage: StorageConfig{
			StagingDirectory: "./data/staging",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is created with
// the defaults.
func Load(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		cfg.applyEnvironmentOverrides()
		cfg.resolvePaths(filepath.Dir(configPath))
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys absent from the file keep their default values.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.resolvePaths(filepath.Dir(configPath))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the default configuration with environment overrides
// applied, for callers that run without a config file.
func Defaults() (*AppConfig, error) {
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Journal uploader configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects settings the uploader cannot run with
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Uploader.MaxFiles <= 0 {
		errs = append(errs, fmt.Errorf("uploader.max_files must be positive"))
	}
	if c.Uploader.MaxFileSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("uploader.max_file_size_mb must be positive"))
	}
	if len(c.Uploader.AllowedTypes) == 0 {
		errs = append(errs, fmt.Errorf("uploader.allowed_types must not be empty"))
	}
	if _, err := c.Uploader.ProcessURL(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ValidationConfig converts the limits to the widget's immutable form.
func (u UploaderConfig) ValidationConfig() (models.ValidationConfig, error) {
	return models.NewValidationConfig(u.MaxFiles, u.AllowedTypes, u.MaxFileSizeMB)
}

// ProcessURL returns the absolute URL submissions are posted to.
func (u UploaderConfig) ProcessURL() (string, error) {
	if strings.TrimSpace(u.Endpoint) == "" {
		return "", fmt.Errorf("uploader.endpoint must not be empty")
	}
	ref, err := url.Parse(u.Endpoint)
	if err != nil {
		return "", fmt.Errorf("uploader.endpoint: %w", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(u.BaseURL)
	if err != nil || !base.IsAbs() {
		return "", fmt.Errorf("uploader.base_url %q must be an absolute URL for endpoint %q", u.BaseURL, u.Endpoint)
	}
	return base.ResolveReference(ref).String(), nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if endpoint := os.Getenv("JOURNAL_ENDPOINT"); endpoint != "" {
		c.Uploader.Endpoint = endpoint
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
	if dir := os.Getenv("STAGING_DIR"); dir != "" {
		c.Storage.StagingDirectory = dir
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.StagingDirectory) {
		c.Storage.StagingDirectory = filepath.Join(configDir, c.Storage.StagingDirectory)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	if err := os.MkdirAll(c.Storage.StagingDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Storage.StagingDirectory, err)
	}
	return nil
}
