// Package realfs provides a real implementation of the FileSystem port using the os package.
package realfs

import (
	"io"
	"io/fs"
	"os"

	"github.com/acolita/ssh-session-mcp/internal/ports"
)

// FS implements ports.FileSystem using the real OS filesystem.
type FS struct{}

// New returns a new real FS.
func New() *FS {
	return &FS{}
}

// ReadFile reads the named file and returns its contents.
func (f *FS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFile writes data to the named file, creating it if necessary.
func (f *FS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// MkdirAll creates a directory and all parent directories.
func (f *FS) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// OpenAppend opens the named file for appending, creating it if necessary.
func (f *FS) OpenAppend(name string, perm fs.FileMode) (io.WriteCloser, error) {
	return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, perm)
}

// Ensure FS implements ports.FileSystem.
var _ ports.FileSystem = (*FS)(nil)
