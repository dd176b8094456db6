// Package storage provides the file store used for payment receipts
// and asset documents. Files live on local disk under a configured
// root; database rows keep the path relative to that root so the root
// can move without rewriting rows.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore stores, opens, and deletes files by a logical folder
// (e.g. "payments/42") plus filename.
type FileStore interface {
	// Save writes r to folder, returning the stored relative path.
	// The stored name carries a random suffix so repeated uploads of
	// the same filename never collide.
	Save(folder, filename string, r io.Reader) (string, error)
	// Open opens a previously stored file by its relative path.
	Open(relPath string) (io.ReadCloser, error)
	// Remove deletes a stored file by its relative path. Removing a
	// missing file is not an error.
	Remove(relPath string) error
	// Abs resolves a stored relative path to an absolute path on disk.
	Abs(relPath string) string
}

// DiskStore is a FileStore backed by a directory tree on local disk.
type DiskStore struct {
	root string
}

// NewDiskStore creates a DiskStore rooted at dir, creating it if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root: %w", err)
	}
	return &DiskStore{root: dir}, nil
}

func (s *DiskStore) Save(folder, filename string, r io.Reader) (string, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	stored := fmt.Sprintf("%s-%s%s", base, uuid.New().String()[:8], ext)

	f, err := os.Create(filepath.Join(dir, stored))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filepath.ToSlash(filepath.Join(folder, stored)), nil
}

func (s *DiskStore) Open(relPath string) (io.ReadCloser, error) {
	return os.Open(s.Abs(relPath))
}

func (s *DiskStore) Remove(relPath string) error {
	err := os.Remove(s.Abs(relPath))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	// Prune the containing directory when it is now empty.
	_ = os.Remove(filepath.Dir(s.Abs(relPath)))
	return nil
}

func (s *DiskStore) Abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}
