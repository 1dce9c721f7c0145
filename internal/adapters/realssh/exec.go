package realssh

import (
	"bytes"
	"errors"

	"github.com/acolita/ssh-session-mcp/internal/ports"
	"golang.org/x/crypto/ssh"
)

// execChannel wraps one *ssh.Session and implements ports.ExecChannel.
type execChannel struct {
	sess *ssh.Session
}

// Run sends the command and blocks until the session closes with an exit
// status. stdout and stderr accumulate independently; the exit status is
// observed only after both streams are drained (ssh.Session.Run guarantees
// this ordering).
func (e *execChannel) Run(command string) (ports.ExecOutput, error) {
	var stdout, stderr bytes.Buffer
	e.sess.Stdout = &stdout
	e.sess.Stderr = &stderr

	err := e.sess.Run(command)

	out := ports.ExecOutput{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err == nil {
		code := 0
		out.ExitCode = &code
		return out, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitStatus()
		out.ExitCode = &code
		return out, nil
	}

	var missingErr *ssh.ExitMissingError
	if errors.As(err, &missingErr) {
		// Command terminated without reporting an exit status.
		// ExitCode stays nil; this is a completed (unsuccessful) run.
		return out, nil
	}

	return out, err
}

// Close tears down the session channel.
func (e *execChannel) Close() error {
	return e.sess.Close()
}

// Ensure execChannel implements ports.ExecChannel.
var _ ports.ExecChannel = (*execChannel)(nil)
