// Package storage stages files received by the host API until they leave the
// upload queue.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/journal-ai/uploader/internal/models"
)

// StatusStaged marks a file held for the upload queue.
const StatusStaged = "staged"

// Store defines the interface for staged file storage.
type Store interface {
	Save(name, mimeType string, r io.Reader) (*models.FileInfo, error)
	Open(id string) (io.ReadCloser, error)
	Delete(id string) error
}

// LocalStore implements Store using a scratch directory on the local filesystem.
type LocalStore struct {
	mu       sync.RWMutex
	stageDir string
	files    map[string]*models.FileInfo
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(stageDir string) (*LocalStore, error) {
	if err := os.MkdirAll(stageDir, 0755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}

	return &LocalStore{
		stageDir: stageDir,
		files:    make(map[string]*models.FileInfo),
	}, nil
}

// Save writes the content of r to the staging directory.
func (s *LocalStore) Save(name, mimeType string, r io.Reader) (*models.FileInfo, error) {
	id := uuid.New().String()
	path := filepath.Join(s.stageDir, id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := &models.FileInfo{
		ID:         id,
		Name:       name,
		MIMEType:   mimeType,
		Size:       size,
		UploadedAt: time.Now(),
		Status:     StatusStaged,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = info

	return info, nil
}

// Open returns a reader over the staged content.
func (s *LocalStore) Open(id string) (io.ReadCloser, error) {
	s.mu.RLock()
	_, ok := s.files[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("file not found: %s", id)
	}

	f, err := os.Open(filepath.Join(s.stageDir, id))
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return f, nil
}

// Delete removes a staged file.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("file not found: %s", id)
	}

	path := filepath.Join(s.stageDir, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	delete(s.files, id)
	return nil
}

// StagedSource reads a file back from a Store. Release deletes it.
type StagedSource struct {
	Store Store
	ID    string
}

// Open implements models.Source.
func (s StagedSource) Open() (io.ReadCloser, error) {
	return s.Store.Open(s.ID)
}

// Release implements models.Releaser.
func (s StagedSource) Release() error {
	return s.Store.Delete(s.ID)
}

// SourceFile describes a staged file as a widget input.
func SourceFile(store Store, info *models.FileInfo) models.SourceFile {
	return models.SourceFile{
		Name:     info.Name,
		MIMEType: info.MIMEType,
		Size:     info.Size,
		Source:   StagedSource{Store: store, ID: info.ID},
	}
}
