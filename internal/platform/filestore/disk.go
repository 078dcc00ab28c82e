package filestore

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskStore writes uploads to a directory on the local filesystem. The
// directory is created on first use. Stored names follow
// patient-<millis>-<random 9 digits><ext> so concurrent uploads of files
// with identical client names cannot collide.
type DiskStore struct {
	dir     string
	maxSize int64
}

func NewDiskStore(dir string, maxSize int64) *DiskStore {
	return &DiskStore{dir: dir, maxSize: maxSize}
}

func (s *DiskStore) Save(_ context.Context, up *Upload) (string, error) {
	if err := validate(up, s.maxSize); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory %s: %w", s.dir, err)
	}

	name := fmt.Sprintf("patient-%d-%09d%s",
		time.Now().UnixMilli(),
		rand.Intn(1_000_000_000),
		strings.ToLower(filepath.Ext(up.Filename)))
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	// The declared size is checked in validate; reading one byte past the
	// limit catches clients that lie about Content-Length.
	written, err := io.Copy(dst, io.LimitReader(up.Content, s.maxSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(path)
		return "", ErrFileTooLarge
	}

	return path, nil
}

func (s *DiskStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	return os.Remove(path)
}
