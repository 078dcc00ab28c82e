// Package filestore handles uploaded patient pictures. It defines the Store
// interface, a disk-backed implementation that persists files under a fixed
// uploads directory, and an in-memory implementation for tests.
package filestore

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("only image files (JPEG, PNG, GIF) are allowed")
	ErrFileTooLarge    = errors.New("file too large")
	ErrTooManyFiles    = errors.New("too many files, only one file allowed")
	ErrUnexpectedField = errors.New("unexpected field name for file upload")
	ErrNoFile          = errors.New("no picture file provided")
)

// AllowedContentTypes lists the accepted picture MIME types.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// Upload carries a single uploaded file on its way into a Store.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Store persists uploaded pictures and removes them again during cleanup.
// Save validates the upload's content type and size before writing and
// returns the stored path that a patient record will reference.
type Store interface {
	Save(ctx context.Context, up *Upload) (string, error)
	Remove(path string) error
}

func validate(up *Upload, maxSize int64) error {
	if !AllowedContentTypes[strings.ToLower(up.ContentType)] {
		return ErrUnsupportedType
	}
	if up.Size > maxSize {
		return ErrFileTooLarge
	}
	return nil
}
