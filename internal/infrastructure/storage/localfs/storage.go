package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/study-library/internal/core/domain"
)

// Storage keeps uploads in one directory under the service root. Paths it
// hands out are relative to that root, e.g. "uploads/<uuid>-notes.pdf".
type Storage struct {
	root      string
	uploadDir string
}

func New(root, uploadDir string) (*Storage, error) {
	if root == "" {
		root = "."
	}
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	uploadDir = filepath.Clean(uploadDir)
	if filepath.IsAbs(uploadDir) || strings.HasPrefix(uploadDir, "..") {
		return nil, fmt.Errorf("upload dir %q must be relative to the service root", uploadDir)
	}
	if err := os.MkdirAll(filepath.Join(root, uploadDir), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{root: root, uploadDir: uploadDir}, nil
}

// Save writes data under a collision-resistant name and returns its relative path.
// A partially written file is removed before the error is returned.
func (s *Storage) Save(_ context.Context, filename string, data io.Reader) (string, error) {
	rel := filepath.Join(s.uploadDir, uuid.NewString()+"-"+sanitizeFilename(filename))
	full := filepath.Join(s.root, rel)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("close file: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

func (s *Storage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "open file", err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *Storage) Remove(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.WrapError(domain.ErrNotFound, "remove file", err)
		}
		return domain.WrapError(domain.ErrFileIO, "remove file", err)
	}
	return nil
}

// resolve maps a stored relative path to disk, refusing anything outside the upload dir.
func (s *Storage) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) {
		return "", domain.WrapError(domain.ErrFileIO, "resolve path", fmt.Errorf("absolute path %q", path))
	}
	rel, err := filepath.Rel(s.uploadDir, clean)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", domain.WrapError(domain.ErrFileIO, "resolve path", fmt.Errorf("path %q escapes upload dir", path))
	}
	return filepath.Join(s.root, clean), nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		return "document.pdf"
	}
	return base
}
