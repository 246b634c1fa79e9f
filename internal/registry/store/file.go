// Package store persists the project dataset. FileStore keeps it as the JSON
// array the site renderer consumes; PostgresStore keeps one row per project.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"ecoregistry/internal/registry/models"
	"ecoregistry/pkg/platform/sentinel"
)

// FileStore reads and writes a dataset file. Writes go to a temporary file in
// the same directory which is then renamed over the target, so readers never
// observe a partial dataset.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Raw returns the file contents as stored.
func (s *FileStore) Raw(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("dataset %s: %w", s.path, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileStore) Load(ctx context.Context) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.Raw(ctx)
	if err != nil {
		return nil, err
	}
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileStore) Get(ctx context.Context, projectID string) (*models.Record, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ProjectID == projectID {
			return &records[i], nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *FileStore) Save(_ context.Context, records []models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if records == nil {
		records = []models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace dataset %s: %w", s.path, err)
	}
	return nil
}
