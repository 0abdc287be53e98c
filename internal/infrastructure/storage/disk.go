// Package storage persists attachment bytes on the local filesystem.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes attachment blobs under a single base directory. Stored
// names are server generated, so the only path hardening needed is rejecting
// separators outright.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the base directory if needed and returns the store.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save streams r into a file named storedName and returns the byte count.
// A partial write leaves no file behind.
func (s *DiskStore) Save(ctx context.Context, storedName string, r io.Reader) (int64, error) {
	path, err := s.path(storedName)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create blob: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("write blob: %w", err)
	}
	return n, nil
}

// Remove deletes the blob. Removing an absent blob is not an error.
func (s *DiskStore) Remove(ctx context.Context, storedName string) error {
	path, err := s.path(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// Open returns a reader over the blob for download handlers.
func (s *DiskStore) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	path, err := s.path(storedName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *DiskStore) path(storedName string) (string, error) {
	if storedName == "" || strings.ContainsAny(storedName, `/\`) || storedName != filepath.Base(storedName) {
		return "", fmt.Errorf("invalid stored name %q", storedName)
	}
	return filepath.Join(s.dir, storedName), nil
}
