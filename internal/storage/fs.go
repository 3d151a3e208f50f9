package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS implements Provider backed by one flat directory on the local file system.
type FS struct {
	root string // absolute path to the data directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute store directory.
func (f *FS) Root() string { return f.root }

// path maps a collection file name to its location. Names are plain file
// names: separators, dot-files and "." or ".." are rejected.
func (f *FS) path(name string) (string, error) {
	switch {
	case name == "":
		return "", fmt.Errorf("storage: empty name")
	case strings.ContainsAny(name, `/\`) || filepath.IsAbs(name):
		return "", fmt.Errorf("storage: %q is not a plain file name", name)
	case strings.HasPrefix(name, "."):
		return "", fmt.Errorf("storage: %q is reserved", name)
	}
	return filepath.Join(f.root, name), nil
}

// Read returns the raw bytes of a store file. A missing file yields an
// error matching os.ErrNotExist.
func (f *FS) Read(name string) ([]byte, error) {
	p, err := f.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Write replaces a store file atomically: the content goes to a hidden temp
// file in the same directory, is fsynced, then renamed over the target.
// Readers see either the old or the new bytes, never a mix.
func (f *FS) Write(name string, content []byte) (err error) {
	p, err := f.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".lumina-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("storage: chmod %s: %w", name, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync %s: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", name, err)
	}
	if err = os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("storage: replace %s: %w", name, err)
	}
	return nil
}
