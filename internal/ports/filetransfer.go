package ports

import (
	"io"
	"io/fs"
)

// FileTransfer abstracts SFTP operations used by the file-transfer tools.
type FileTransfer interface {
	// Open opens a remote file for reading.
	Open(path string) (io.ReadCloser, error)

	// Create opens a remote file for writing, truncating it if it exists.
	Create(path string) (io.WriteCloser, error)

	// MkdirAll creates a remote directory and any missing parents.
	MkdirAll(path string) error

	// Stat returns file info for a remote path.
	Stat(path string) (fs.FileInfo, error)
}
