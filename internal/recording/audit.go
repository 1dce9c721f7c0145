// Package recording provides a JSON-lines audit log of executed commands.
package recording

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/acolita/ssh-session-mcp/internal/ports"
)

// Entry is one audit record, serialized as a single JSON line.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	Host        string    `json:"host"`
	User        string    `json:"user"`
	Command     string    `json:"command"`
	ExitCode    *int      `json:"exit_code"`
	Success     bool      `json:"success"`
	StdoutBytes int       `json:"stdout_bytes"`
	StderrBytes int       `json:"stderr_bytes"`
}

// AuditLog appends command audit entries to a file. When disabled, every
// method is a no-op so callers never need to check.
type AuditLog struct {
	mu      sync.Mutex
	path    string
	enabled bool
	fs      ports.FileSystem
	file    io.WriteCloser
}

// NewAuditLog creates an audit log writing to path. The file is opened
// lazily on the first append.
func NewAuditLog(path string, enabled bool, fs ports.FileSystem) *AuditLog {
	return &AuditLog{
		path:    path,
		enabled: enabled && path != "",
		fs:      fs,
	}
}

// Enabled reports whether entries will be written.
func (a *AuditLog) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Append writes one entry as a JSON line.
func (a *AuditLog) Append(e Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.enabled {
		return nil
	}

	if a.file == nil {
		if err := a.fs.MkdirAll(filepath.Dir(a.path), 0700); err != nil {
			return fmt.Errorf("create audit directory: %w", err)
		}
		f, err := a.fs.OpenAppend(a.path, 0600)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		a.file = f
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	if _, err := a.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// Reconfigure applies new recording settings at runtime. A path change
// closes the current file; the next append reopens at the new path.
func (a *AuditLog) Reconfigure(path string, enabled bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var err error
	if path != a.path && a.file != nil {
		err = a.file.Close()
		a.file = nil
	}
	a.path = path
	a.enabled = enabled && path != ""
	return err
}

// Close closes the underlying file, if open.
func (a *AuditLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}
