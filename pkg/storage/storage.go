package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for object names that could escape the storage root.
var ErrInvalidName = errors.New("invalid object name")

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Object is an opened stored file. Callers must close Reader.
type Object struct {
	Reader      io.ReadCloser
	Size        int64
	ContentType string
}

// FileStore persists uploaded binaries under flat generated names.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, name string) (*Object, error)
	Delete(ctx context.Context, name string) error
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
