package ports

import (
	"io"
	"io/fs"
)

// FileSystem abstracts local file operations for testing.
type FileSystem interface {
	// ReadFile reads the named file and returns its contents.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm fs.FileMode) error

	// OpenAppend opens the named file for appending, creating it if necessary.
	OpenAppend(name string, perm fs.FileMode) (io.WriteCloser, error)
}
