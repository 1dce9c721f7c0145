// Package ports defines interfaces for external dependencies (Ports and Adapters pattern).
package ports

// DialConfig carries everything a Dialer needs to establish one SSH connection.
// Credentials are passed raw; the dialer decides how to turn them into
// transport-level auth methods.
type DialConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	PrivateKey []byte
	Passphrase string
}

// Dialer abstracts SSH connection establishment for testing.
type Dialer interface {
	// Dial establishes an SSH connection. The returned Conn is live and
	// owned by the caller.
	Dial(cfg DialConfig) (Conn, error)
}

// Conn is one live SSH connection.
type Conn interface {
	// OpenExec opens a command-execution channel on the connection.
	OpenExec() (ExecChannel, error)

	// OpenSFTP returns the file-transfer client for this connection.
	// The client is lazily initialized and shares the connection's lifetime.
	OpenSFTP() (FileTransfer, error)

	// Close releases the underlying transport resource.
	Close() error

	// Done returns a channel that is closed when the remote side
	// terminates the connection. It fires at most once.
	Done() <-chan struct{}
}

// ExecOutput is the terminal outcome of one command-execution channel.
// ExitCode is nil only when the remote side terminated the command without
// reporting an exit status.
type ExecOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode *int
}

// ExecChannel runs a single command to completion.
type ExecChannel interface {
	// Run sends the command and blocks until the channel closes,
	// accumulating stdout and stderr independently in arrival order.
	// A non-zero exit status is not an error; a transport failure is.
	Run(command string) (ExecOutput, error)

	// Close tears down the channel. Safe to call after Run returns, and
	// the only way to abandon a Run that will not finish.
	Close() error
}
