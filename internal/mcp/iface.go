package mcp

import (
	"github.com/acolita/ssh-session-mcp/internal/ports"
	"github.com/acolita/ssh-session-mcp/internal/session"
)

// sessionManager abstracts the session lifecycle operations for testing.
type sessionManager interface {
	Connect(cfg session.Config) (*session.ConnectSummary, error)
	Disconnect() *session.DisconnectSummary
	Status() *session.StatusSummary
	Execute(command string, timeoutMs int, workingDir string) (*session.ExecutionResult, error)
	FileTransfer() (ports.FileTransfer, error)
}

// Verify the concrete type satisfies the interface at compile time.
var _ sessionManager = (*session.Manager)(nil)
