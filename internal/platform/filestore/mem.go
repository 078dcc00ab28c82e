package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MemStore is a thread-safe, in-memory Store for tests. It applies the same
// validation as DiskStore and records every Remove call.
type MemStore struct {
	mu      sync.Mutex
	maxSize int64
	seq     int
	files   map[string][]byte
	Removed []string
}

func NewMemStore(maxSize int64) *MemStore {
	return &MemStore{maxSize: maxSize, files: make(map[string][]byte)}
}

func (s *MemStore) Save(_ context.Context, up *Upload) (string, error) {
	if err := validate(up, s.maxSize); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(up.Content, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return "", ErrFileTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	path := filepath.Join("uploads", fmt.Sprintf("patient-%d%s", s.seq, strings.ToLower(filepath.Ext(up.Filename))))
	s.files[path] = data
	return path, nil
}

func (s *MemStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Removed = append(s.Removed, path)
	if _, ok := s.files[path]; !ok {
		return os.ErrNotExist
	}
	delete(s.files, path)
	return nil
}

// Exists reports whether a stored file is still present.
func (s *MemStore) Exists(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	return ok
}

// Len returns the number of stored files.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
