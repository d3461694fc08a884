// Package uploads provides attachment storage for the telemedicine API.
// It defines the FileStore interface, a disk-backed implementation, an
// in-memory implementation suitable for testing and development, and Echo
// HTTP handlers for multipart upload and file serving.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrFileNotFound        = errors.New("file not found")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrExtensionNotAllowed = errors.New("file type is not allowed")
	ErrMissingFileName     = errors.New("file name is required")
)

// AllowedExtensions lists the file extensions accepted for upload.
var AllowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"pdf":  true,
	"doc":  true,
	"docx": true,
}

// AllowedExtension reports whether the filename carries an accepted
// extension. Extension matching is case-insensitive.
func AllowedExtension(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return AllowedExtensions[ext]
}

// SanitizeFilename strips any path components and replaces characters that
// are unsafe in a stored filename. The result is never empty; a filename
// reduced to nothing becomes "file".
func SanitizeFilename(name string) string {
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "file"
	}
	return out
}

// FileStore defines the contract for attachment storage backends. Stored
// filenames are flat; no backend interprets path separators.
type FileStore interface {
	Save(ctx context.Context, filename string, content io.Reader) error
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
	Delete(ctx context.Context, filename string) error
}

// DiskStore stores files under a single directory on the local filesystem.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed and returns a store
// over it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", ErrFileNotFound
	}
	return filepath.Join(s.dir, filename), nil
}

func (s *DiskStore) Save(_ context.Context, filename string, content io.Reader) error {
	p, err := s.path(filename)
	if err != nil {
		return err
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("create file %s: %w", filename, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(p)
		return fmt.Errorf("write file %s: %w", filename, err)
	}
	return nil
}

func (s *DiskStore) Open(_ context.Context, filename string) (io.ReadCloser, error) {
	p, err := s.path(filename)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("open file %s: %w", filename, err)
	}
	return f, nil
}

func (s *DiskStore) Delete(_ context.Context, filename string) error {
	p, err := s.path(filename)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("delete file %s: %w", filename, err)
	}
	return nil
}

// InMemoryStore is a thread-safe, in-memory FileStore for testing/dev.
type InMemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewInMemoryStore returns a ready-to-use InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{files: make(map[string][]byte)}
}

func (s *InMemoryStore) Save(_ context.Context, filename string, content io.Reader) error {
	if filename == "" {
		return ErrMissingFileName
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("reading content: %w", err)
	}

	s.mu.Lock()
	s.files[filename] = data
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) Open(_ context.Context, filename string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.files[filename]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *InMemoryStore) Delete(_ context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[filename]; !ok {
		return ErrFileNotFound
	}
	delete(s.files, filename)
	return nil
}
