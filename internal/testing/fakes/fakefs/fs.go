// Package fakefs provides an in-memory FileSystem implementation for testing.
package fakefs

import (
	"io"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/acolita/ssh-session-mcp/internal/ports"
)

// FS is an in-memory filesystem for testing.
type FS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
}

// New creates a new in-memory filesystem.
func New() *FS {
	return &FS{
		files: make(map[string][]byte),
		dirs:  map[string]bool{"/": true},
	}
}

// ReadFile reads the named file and returns its contents.
func (f *FS) ReadFile(name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name = filepath.Clean(name)
	data, ok := f.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// WriteFile writes data to the named file, creating it if necessary.
func (f *FS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	name = filepath.Clean(name)
	f.dirs[filepath.Dir(name)] = true

	stored := make([]byte, len(data))
	copy(stored, data)
	f.files[name] = stored
	return nil
}

// MkdirAll creates a directory and all parent directories.
func (f *FS) MkdirAll(path string, perm fs.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path = filepath.Clean(path)
	for path != "/" && path != "." {
		f.dirs[path] = true
		path = filepath.Dir(path)
	}
	return nil
}

// OpenAppend opens the named file for appending, creating it if necessary.
func (f *FS) OpenAppend(name string, perm fs.FileMode) (io.WriteCloser, error) {
	return appendWriter{fs: f, name: filepath.Clean(name)}, nil
}

// HasDir reports whether the directory was created.
func (f *FS) HasDir(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirs[filepath.Clean(path)]
}

// appendWriter appends writes to a file in the fake filesystem.
type appendWriter struct {
	fs   *FS
	name string
}

// Write appends b to the file.
func (w appendWriter) Write(b []byte) (int, error) {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()
	w.fs.files[w.name] = append(w.fs.files[w.name], b...)
	return len(b), nil
}

// Close is a no-op.
func (w appendWriter) Close() error { return nil }

// Ensure FS implements ports.FileSystem.
var _ ports.FileSystem = (*FS)(nil)
