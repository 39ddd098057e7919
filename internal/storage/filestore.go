// Package storage keeps uploaded attachments in a single flat directory.
// A stored file is addressed only by its generated name; which item it
// belongs to is recorded in the database.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var (
	ErrNotFound     = errors.New("file not found")
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")
)

const maxStemLength = 40

// FileStore writes and resolves attachments in one directory.
type FileStore struct {
	dir     string
	maxSize int64
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, maxSize int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir, maxSize: maxSize}, nil
}

// MaxSize is the per-file limit in bytes.
func (s *FileStore) MaxSize() int64 { return s.maxSize }

// CheckSize rejects an upload larger than the configured limit.
func (s *FileStore) CheckSize(fh *multipart.FileHeader) error {
	if fh.Size > s.maxSize {
		return fmt.Errorf("%w: %s (%d bytes, limit %d)", ErrFileTooLarge, fh.Filename, fh.Size, s.maxSize)
	}
	return nil
}

// Store copies the upload into the directory under a new unique name and
// returns that name.
func (s *FileStore) Store(fh *multipart.FileHeader) (string, error) {
	if err := s.CheckSize(fh); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := generateName(fh.Filename)
	path := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	// The header size comes from the client; enforce the limit on the bytes too.
	n, err := io.Copy(dst, io.LimitReader(src, s.maxSize+1))
	closeErr := dst.Close()
	if err == nil && n > s.maxSize {
		err = fmt.Errorf("%w: %s", ErrFileTooLarge, fh.Filename)
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return name, nil
}

// Path resolves a stored filename to its location on disk.
func (s *FileStore) Path(filename string) (string, error) {
	if !validName(filename) {
		return "", ErrNotFound
	}
	path := filepath.Join(s.dir, filename)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	if info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// generateName builds "<uuid>-<slug of original stem><ext>".
func generateName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	ext := filepath.Ext(base)
	stem := slug.Make(strings.TrimSuffix(base, ext))
	if len(stem) > maxStemLength {
		stem = strings.Trim(stem[:maxStemLength], "-")
	}
	if ext = slug.Make(strings.TrimPrefix(ext, ".")); ext != "" {
		ext = "." + ext
	}

	name := uuid.New().String()
	if stem != "" {
		name += "-" + stem
	}
	return name + ext
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
