package realssh

import (
	"io"
	"io/fs"

	"github.com/acolita/ssh-session-mcp/internal/ports"
	"github.com/pkg/sftp"
)

// fileTransfer adapts *sftp.Client to ports.FileTransfer.
type fileTransfer struct {
	client *sftp.Client
}

// Open opens a remote file for reading.
func (t *fileTransfer) Open(path string) (io.ReadCloser, error) {
	return t.client.Open(path)
}

// Create opens a remote file for writing, truncating it if it exists.
func (t *fileTransfer) Create(path string) (io.WriteCloser, error) {
	return t.client.Create(path)
}

// MkdirAll creates a remote directory and any missing parents.
func (t *fileTransfer) MkdirAll(path string) error {
	return t.client.MkdirAll(path)
}

// Stat returns file info for a remote path.
func (t *fileTransfer) Stat(path string) (fs.FileInfo, error) {
	return t.client.Stat(path)
}

// Ensure fileTransfer implements ports.FileTransfer.
var _ ports.FileTransfer = (*fileTransfer)(nil)
